// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Task is one scheduled callback. Interval > 0 reschedules after each fire.
type Task struct {
	ID       int64
	Execute  time.Time
	Interval time.Duration
	Callback func()
	index    int
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	return q[i].Execute.Before(q[j].Execute)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	n := len(*q)
	task := x.(*Task)
	task.index = n
	*q = append(*q, task)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// Manager schedules cancellable callbacks on a single 100ms sweep. Grace
// timers and bot-decision delays both run through here, so cancelling by ID
// is the one primitive rooms need.
type Manager struct {
	queue   taskQueue
	mutex   sync.Mutex
	nextID  int64
	trigger chan *Task
	done    chan struct{}
	once    sync.Once
}

func NewManager() *Manager {
	m := &Manager{
		queue:   make(taskQueue, 0),
		trigger: make(chan *Task, 1000),
		nextID:  1,
		done:    make(chan struct{}),
	}
	heap.Init(&m.queue)
	go m.process()
	return m
}

// AddTimer schedules callback after delay; a positive interval repeats it.
// The returned ID cancels the task via RemoveTimer.
func (m *Manager) AddTimer(delay, interval time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task := &Task{
		ID:       m.nextID,
		Execute:  time.Now().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	m.nextID++

	heap.Push(&m.queue, task)
	return task.ID
}

// RemoveTimer cancels a pending task. Unknown IDs (already fired or already
// removed) are ignored.
func (m *Manager) RemoveTimer(id int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, task := range m.queue {
		if task.ID == id {
			heap.Remove(&m.queue, i)
			break
		}
	}
}

// Stop ends the sweep loop. Pending tasks never fire afterwards.
func (m *Manager) Stop() {
	m.once.Do(func() { close(m.done) })
}

func (m *Manager) process() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return

		case <-ticker.C:
			m.mutex.Lock()
			now := time.Now()
			for m.queue.Len() > 0 {
				task := m.queue[0]
				if task.Execute.After(now) {
					break
				}

				heap.Pop(&m.queue)
				m.trigger <- task

				if task.Interval > 0 {
					task.Execute = now.Add(task.Interval)
					heap.Push(&m.queue, task)
				}
			}
			m.mutex.Unlock()

		case task := <-m.trigger:
			go task.Callback()
		}
	}
}

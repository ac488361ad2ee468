// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlineSessions prometheus.Gauge
	ActiveRooms    prometheus.Gauge
	ActionsApplied *prometheus.CounterVec
	Rejections     *prometheus.CounterVec
	BotDecisions   prometheus.Counter
	Settlements    prometheus.Counter
	ActionLatency  prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		OnlineSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_sessions",
			Help:      "Number of connected sessions",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of live match rooms",
		}),
		ActionsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_applied_total",
			Help:      "Accepted actions by game variant",
		}, []string{"variant"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_rejected_total",
			Help:      "Rejected actions by reason code",
		}, []string{"code"}),
		BotDecisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bot_decisions_total",
			Help:      "Decisions made for seats under automated control",
		}),
		Settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Matches settled",
		}),
		ActionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_latency_seconds",
			Help:      "Action processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}

	prometheus.MustRegister(
		m.OnlineSessions,
		m.ActiveRooms,
		m.ActionsApplied,
		m.Rejections,
		m.BotDecisions,
		m.Settlements,
		m.ActionLatency,
	)

	return m
}

type Monitor struct {
	metrics     *Metrics
	startTime   time.Time
	actionCount int64
	mutex       sync.Mutex
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())

	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("actions", expvar.Func(func() interface{} {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.actionCount
	}))

	go http.ListenAndServe(addr, nil)
}

func (m *Monitor) IncOnlineSessions() {
	m.metrics.OnlineSessions.Inc()
}

func (m *Monitor) DecOnlineSessions() {
	m.metrics.OnlineSessions.Dec()
}

func (m *Monitor) SetActiveRooms(count int) {
	m.metrics.ActiveRooms.Set(float64(count))
}

func (m *Monitor) IncActionApplied(variant string) {
	m.metrics.ActionsApplied.WithLabelValues(variant).Inc()
	m.mutex.Lock()
	m.actionCount++
	m.mutex.Unlock()
}

func (m *Monitor) IncRejection(code string) {
	m.metrics.Rejections.WithLabelValues(code).Inc()
}

func (m *Monitor) IncBotDecision() {
	m.metrics.BotDecisions.Inc()
}

func (m *Monitor) IncSettlement() {
	m.metrics.Settlements.Inc()
}

func (m *Monitor) ObserveActionLatency(duration time.Duration) {
	m.metrics.ActionLatency.Observe(duration.Seconds())
}

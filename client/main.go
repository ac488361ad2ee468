// Command client is a minimal interactive test client for the match
// engine's websocket protocol. It joins one match and lets you type raw
// action JSON, plus a few shortcuts for common moves.
package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeHeartbeat = 1
	MsgTypeJoinMatch = 101
	MsgTypeAction    = 201
)

func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	account := flag.Int64("account", 0, "account id")
	name := flag.String("name", "tester", "display name")
	variant := flag.String("variant", "trick_bidding", "game variant")
	stake := flag.Int64("stake", 0, "per-seat stake in minor units")
	fillHouse := flag.Bool("fill-house", false, "start immediately with house seats")
	flag.Parse()

	if *account <= 0 {
		log.Fatal("-account is required and must be positive")
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("read error:", err)
				return
			}
			if len(message) < 4 {
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- (%d) %s", msgID, string(data))
		}
	}()

	join, _ := json.Marshal(map[string]interface{}{
		"account_id": *account,
		"name":       *name,
		"variant":    *variant,
		"stake":      *stake,
		"fill_house": *fillHouse,
	})
	if err := send(c, MsgTypeJoinMatch, join); err != nil {
		log.Fatalf("join failed: %v", err)
	}

	log.Println("joined; type action JSON, or: bid N | play SUIT RANK | roll | move N | fold | see | call | show")

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			return
		default:
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		payload := actionPayload(strings.TrimSpace(line))
		if payload == nil {
			continue
		}
		if err := send(c, MsgTypeAction, payload); err != nil {
			log.Println("write error:", err)
			return
		}
	}
}

var suits = map[string]int{"clubs": 0, "diamonds": 1, "hearts": 2, "spades": 3}

// actionPayload turns a shortcut line into the action JSON, or passes raw
// JSON through untouched.
func actionPayload(line string) []byte {
	if line == "" {
		return nil
	}
	if strings.HasPrefix(line, "{") {
		return []byte(line)
	}
	fields := strings.Fields(line)
	action := map[string]interface{}{"type": fields[0]}
	switch fields[0] {
	case "bid":
		if len(fields) > 1 {
			action["bid"], _ = strconv.Atoi(fields[1])
		}
	case "play", "conceal":
		if len(fields) > 2 {
			suit, ok := suits[strings.ToLower(fields[1])]
			if !ok {
				log.Printf("unknown suit %q", fields[1])
				return nil
			}
			rank, _ := strconv.Atoi(fields[2])
			action["card"] = map[string]int{"suit": suit, "rank": rank}
		}
	case "declare":
		if len(fields) > 1 {
			suit, ok := suits[strings.ToLower(fields[1])]
			if !ok {
				log.Printf("unknown suit %q", fields[1])
				return nil
			}
			action["suit"] = suit
		}
	case "raise":
		if len(fields) > 1 {
			amount, _ := strconv.ParseInt(fields[1], 10, 64)
			action["amount"] = amount
		}
	case "move":
		if len(fields) > 1 {
			action["piece"], _ = strconv.Atoi(fields[1])
		}
	case "roll", "fold", "see", "call", "show", "reveal", "pass":
	default:
		log.Printf("unknown command %q", fields[0])
		return nil
	}
	data, _ := json.Marshal(action)
	return data
}

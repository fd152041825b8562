// Package wsline implements the line transport over a WebSocket, for
// devices or gateways that forward telemetry as text frames, one line
// per message.
package wsline

import (
	"context"
	"fmt"
	"sync"
	"time"

	drepo "SerialScope/internal/domain/repository"

	"github.com/gorilla/websocket"
)

type Transport struct {
	url            string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	mu    sync.Mutex
	conn  *websocket.Conn
	open  bool
	lines chan string
	done  chan struct{}
}

func New(url string, reconnectDelay, pingInterval time.Duration) drepo.LineTransport {
	if reconnectDelay <= 0 {
		reconnectDelay = time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 15 * time.Second
	}
	return &Transport{url: url, reconnectDelay: reconnectDelay, pingInterval: pingInterval}
}

func (t *Transport) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open {
		return nil
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return fmt.Errorf("ws dial %s: %w", t.url, err)
	}
	t.conn = conn
	t.open = true
	t.lines = make(chan string, 1024)
	t.done = make(chan struct{})

	go t.pingLoop(conn, t.done)
	go t.readLoop(conn, t.lines, t.done)
	return nil
}

func (t *Transport) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(t.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = conn.WriteMessage(websocket.PingMessage, nil)
		}
	}
}

func (t *Transport) readLoop(conn *websocket.Conn, lines chan<- string, done <-chan struct{}) {
	for {
		kind, b, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		select {
		case <-done:
			return
		case lines <- string(b):
		default:
		}
	}
}

func (t *Transport) IsLineAvailable() bool {
	t.mu.Lock()
	ch := t.lines
	t.mu.Unlock()
	return ch != nil && len(ch) > 0
}

func (t *Transport) ReadLine() (string, error) {
	t.mu.Lock()
	ch := t.lines
	t.mu.Unlock()
	if ch == nil {
		return "", fmt.Errorf("ws %s not open", t.url)
	}
	select {
	case line := <-ch:
		return line, nil
	default:
		return "", fmt.Errorf("ws %s: no line available", t.url)
	}
}

func (t *Transport) WriteLine(s string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return fmt.Errorf("ws %s not open", t.url)
	}
	return t.conn.WriteMessage(websocket.TextMessage, []byte(s))
}

func (t *Transport) Reconnect(ctx context.Context) error {
	_ = t.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(t.reconnectDelay):
	}
	return t.Open(ctx)
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return nil
	}
	t.open = false
	close(t.done)
	err := t.conn.Close()
	t.conn = nil
	t.lines = nil
	return err
}

func (t *Transport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

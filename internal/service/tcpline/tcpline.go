// Package tcpline implements the line transport over a TCP stream,
// for ser2net-style serial bridges and test rigs.
package tcpline

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	drepo "SerialScope/internal/domain/repository"
)

type Transport struct {
	addr           string
	dialTimeout    time.Duration
	reconnectDelay time.Duration

	mu    sync.Mutex
	conn  net.Conn
	open  bool
	lines chan string
	done  chan struct{}
}

func New(addr string, dialTimeout, reconnectDelay time.Duration) drepo.LineTransport {
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	if reconnectDelay <= 0 {
		reconnectDelay = time.Second
	}
	return &Transport{addr: addr, dialTimeout: dialTimeout, reconnectDelay: reconnectDelay}
}

func (t *Transport) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open {
		return nil
	}
	d := net.Dialer{Timeout: t.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("tcp dial %s: %w", t.addr, err)
	}
	t.conn = conn
	t.open = true
	t.lines = make(chan string, 1024)
	t.done = make(chan struct{})

	go func(lines chan<- string, done <-chan struct{}) {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			select {
			case <-done:
				return
			case lines <- scanner.Text():
			default:
			}
		}
	}(t.lines, t.done)
	return nil
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
		return "", fmt.Errorf("tcp %s not open", t.addr)
	}
	select {
	case line := <-ch:
		return line, nil
	default:
		return "", fmt.Errorf("tcp %s: no line available", t.addr)
	}
}

func (t *Transport) WriteLine(s string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return fmt.Errorf("tcp %s not open", t.addr)
	}
	_, err := t.conn.Write([]byte(s + "\n"))
	return err
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

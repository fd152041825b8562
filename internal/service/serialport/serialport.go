// Package serialport implements the line transport over a physical
// serial port.
package serialport

import (
	"bufio"
	"context"
	"fmt"
	"sync"
	"time"

	drepo "SerialScope/internal/domain/repository"

	"go.bug.st/serial"
)

// Transport reads newline-terminated telemetry from a serial port. A
// reader goroutine feeds an internal buffer so the pump's availability
// check never blocks on the device; on buffer overflow the oldest
// unread lines survive and the newest are dropped.
type Transport struct {
	portName       string
	baudRate       int
	reconnectDelay time.Duration

	mu    sync.Mutex
	port  serial.Port
	open  bool
	lines chan string
	done  chan struct{}
}

func New(portName string, baudRate int, reconnectDelay time.Duration) drepo.LineTransport {
	if reconnectDelay <= 0 {
		reconnectDelay = time.Second
	}
	return &Transport{
		portName:       portName,
		baudRate:       baudRate,
		reconnectDelay: reconnectDelay,
	}
}

func (t *Transport) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open {
		return nil
	}
	port, err := serial.Open(t.portName, &serial.Mode{BaudRate: t.baudRate})
	if err != nil {
		return fmt.Errorf("serial open %s: %w", t.portName, err)
	}
	t.port = port
	t.open = true
	t.lines = make(chan string, 1024)
	t.done = make(chan struct{})

	go t.readLoop(port, t.lines, t.done)
	return nil
}

func (t *Transport) readLoop(port serial.Port, lines chan<- string, done <-chan struct{}) {
	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		select {
		case <-done:
			return
		case lines <- scanner.Text():
		default:
			// buffer full; drop the newest line
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
		return "", fmt.Errorf("serial %s not open", t.portName)
	}
	select {
	case line := <-ch:
		return line, nil
	default:
		return "", fmt.Errorf("serial %s: no line available", t.portName)
	}
}

func (t *Transport) WriteLine(s string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return fmt.Errorf("serial %s not open", t.portName)
	}
	_, err := t.port.Write([]byte(s + "\n"))
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
	err := t.port.Close()
	t.port = nil
	t.lines = nil
	return err
}

func (t *Transport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

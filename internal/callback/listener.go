package callback

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/desertthunder/scanlink/internal/pages"
	"github.com/desertthunder/scanlink/internal/shared"
)

// DefaultTimeout bounds a capture when [ListenerConfig.Timeout] is zero.
const DefaultTimeout = 300 * time.Second

const (
	maxRequestHead = 16 << 10
	drainWindow    = 250 * time.Millisecond
)

// ListenerConfig holds the caller-supplied settings for one capture attempt.
//
// Port 0 lets the system choose a free port, which is reported by [Listener.Addr].
type ListenerConfig struct {
	Port    uint16
	Timeout time.Duration
}

// Listener is a one-shot loopback listener. It is consumed by a single call to [Listener.Wait].
type Listener struct {
	ln      net.Listener
	timeout time.Duration

	mu        sync.Mutex
	conn      net.Conn
	closed    bool
	closeOnce sync.Once
}

type result struct {
	code string
	err  error
}

// Listen binds the loopback interface on cfg.Port. A bind failure wraps [shared.ErrBindFailed].
func Listen(cfg ListenerConfig) (*Listener, error) {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(int(cfg.Port)))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: port %d: %v", shared.ErrBindFailed, cfg.Port, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Listener{ln: ln, timeout: timeout}, nil
}

// Capture binds, waits for one redirect and returns its code. It is [Listen] followed by [Listener.Wait].
func Capture(ctx context.Context, cfg ListenerConfig) (string, error) {
	l, err := Listen(cfg)
	if err != nil {
		return "", err
	}
	return l.Wait(ctx)
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Port returns the bound TCP port.
func (l *Listener) Port() int {
	if addr, ok := l.ln.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Wait blocks until one redirect has been answered, the timeout elapses, or ctx is done.
//
// It returns either the captured code or exactly one error wrapping one of [shared.ErrReadFailed],
// [shared.ErrParseFailed], [shared.ErrWriteFailed] or [shared.ErrTimeout]. The port is released
// before Wait returns.
func (l *Listener) Wait(ctx context.Context) (string, error) {
	defer l.Close()

	deadline := time.Now().Add(l.timeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	results := make(chan result, 1)
	go func() {
		code, err := l.serveOne(deadline)
		results <- result{code: code, err: err}
	}()

	select {
	case r := <-results:
		return r.code, r.err
	case <-ctx.Done():
		l.Close()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: no authorization code received within %v", shared.ErrTimeout, l.timeout)
		}
		return "", ctx.Err()
	}
}

// Close releases the port and drops any accepted connection. It is safe to call more than once.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		err = l.ln.Close()
	})

	l.mu.Lock()
	l.closed = true
	if l.conn != nil {
		l.conn.Close()
	}
	l.mu.Unlock()
	return err
}

func (l *Listener) serveOne(deadline time.Time) (string, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return "", fmt.Errorf("%w: accept: %v", shared.ErrReadFailed, err)
	}
	defer conn.Close()

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return "", fmt.Errorf("%w: listener closed", shared.ErrReadFailed)
	}
	l.conn = conn
	l.mu.Unlock()

	conn.SetDeadline(deadline)

	reader := bufio.NewReader(io.LimitReader(conn, maxRequestHead))
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", classify(shared.ErrReadFailed, "request line", err)
	}

	code, parseErr := ParseRequestLine(line)

	drainHeaders(conn, reader, deadline)
	conn.SetWriteDeadline(deadline)

	if _, err := conn.Write(pages.RawResponse(pages.Success())); err != nil && parseErr == nil {
		return "", classify(shared.ErrWriteFailed, "response", err)
	}

	if parseErr != nil {
		return "", parseErr
	}
	return code, nil
}

// classify reports deadline expiry on the connection as a timeout rather than an I/O failure.
func classify(kind error, step string, err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %s: %v", shared.ErrTimeout, step, err)
	}
	return fmt.Errorf("%w: %s: %v", kind, step, err)
}

// drainHeaders consumes the rest of the request head so closing the socket does not reset
// the connection before the browser reads the page. It gives up after a short window.
func drainHeaders(conn net.Conn, reader *bufio.Reader, deadline time.Time) {
	window := time.Now().Add(drainWindow)
	if window.After(deadline) {
		window = deadline
	}
	conn.SetReadDeadline(window)

	for {
		line, err := reader.ReadString('\n')
		if err != nil || line == "\r\n" || line == "\n" {
			return
		}
	}
}

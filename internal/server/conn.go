package server

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"recordings/internal/config"
)

var crlfcrlf = []byte("\r\n\r\n")

// writeChunkBytes bounds a single socket write. Large responses drain
// chunk by chunk so the idle timer rearms between writes; a slow but
// active reader must never look idle for the length of a whole body.
const writeChunkBytes = 64 * 1024

// Conn manages one accepted socket: it accumulates the HTTP request
// head under a size bound, hands the exchange to the first matching
// handler, forwards body bytes in arrival order and drains buffered
// writes without ever blocking a handler. The cycle is HTTP/1.0-like:
// one request, one response, close. No pipelining, no 100-continue.
//
// All shared state sits behind one mutex; the read goroutine, the write
// goroutine and the timer callback are mutually exclusive with respect
// to it. Handler callbacks run outside the lock.
type Conn struct {
	env      *Env
	types    []HandlerType
	listener *socketListener
	sock     net.Conn

	mu              sync.Mutex
	handler         Handler
	responseStarted bool
	handlerDone     bool
	closed          bool
	writeQ          [][]byte
	wake            chan struct{}
	done            chan struct{}
	idleTimeout     time.Duration
	maxDuration     time.Duration
	start           time.Time
	timer           *time.Timer

	// Touched only by the read goroutine.
	headerBuf []byte
	req       *Request
	expected  int64
	received  int64
}

func newConn(env *Env, types []HandlerType, listener *socketListener, sock net.Conn, idle, maxDuration time.Duration) *Conn {
	if tcp, ok := sock.(*net.TCPConn); ok {
		// HTTP already sends in reasonable chunks; Nagle only adds latency.
		tcp.SetNoDelay(true)
	}
	c := &Conn{
		env:         env,
		types:       types,
		listener:    listener,
		sock:        sock,
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		idleTimeout: idle,
		maxDuration: maxDuration,
		start:       time.Now(),
	}
	c.rearmTimer()
	go c.readLoop()
	go c.writeLoop()
	return c
}

// SetIdleTimeout lets a handler relax (or tighten) the low default
// chosen to limit bad behavior.
func (c *Conn) SetIdleTimeout(d time.Duration) {
	c.mu.Lock()
	c.idleTimeout = d
	c.mu.Unlock()
	c.rearmTimer()
}

// SetMaxConnectionDuration lets a handler override the absolute
// connection lifetime, e.g. for long audio streams.
func (c *Conn) SetMaxConnectionDuration(d time.Duration) {
	c.mu.Lock()
	c.maxDuration = d
	c.mu.Unlock()
	c.rearmTimer()
}

func (c *Conn) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := c.sock.Read(buf)
		if n > 0 {
			if !c.receive(buf[:n]) {
				return
			}
			c.rearmTimer()
		}
		if err != nil {
			// Zero-byte read: the remote closed.
			c.close()
			return
		}
	}
}

// receive consumes one chunk. A false return stops further reads; the
// response (if any) still drains through the write goroutine.
func (c *Conn) receive(data []byte) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	h := c.handler
	c.mu.Unlock()

	if h != nil {
		return c.receiveBody(h, data)
	}
	return c.receiveHead(data)
}

func (c *Conn) receiveHead(data []byte) bool {
	c.headerBuf = append(c.headerBuf, data...)
	if len(c.headerBuf) > config.MaxHeaderBytes {
		c.sendError(http.StatusRequestHeaderFieldsTooLarge)
		return false
	}
	i := bytes.Index(c.headerBuf, crlfcrlf)
	if i < 0 {
		return true
	}

	head := c.headerBuf[:i]
	leftover := c.headerBuf[i+len(crlfcrlf):]
	c.headerBuf = nil

	req, err := parseRequest(head)
	if err != nil {
		c.env.Logger.Debug("rejecting malformed request", "error", err)
		c.sendError(http.StatusBadRequest)
		return false
	}
	c.req = req

	ht := c.selectType(req)
	h, err := ht.New(req, c.env)
	if err != nil {
		c.handleHandlerError(err)
		return false
	}
	c.expected = req.ContentLength
	if c.expected > h.MaxContentLength() {
		c.sendError(http.StatusRequestEntityTooLarge)
		return false
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.handler = h
	c.mu.Unlock()

	if c.expected == 0 {
		c.runRespond(h)
		return false
	}
	if len(leftover) > 0 {
		return c.receiveBody(h, leftover)
	}
	return true
}

func (c *Conn) receiveBody(h Handler, data []byte) bool {
	c.received += int64(len(data))
	if c.received > c.expected {
		c.sendError(http.StatusBadRequest)
		return false
	}
	if err := h.ReceiveBody(data); err != nil {
		c.handleHandlerError(err)
		return false
	}
	if c.received == c.expected {
		c.runRespond(h)
		return false
	}
	return true
}

func (c *Conn) selectType(req *Request) HandlerType {
	for _, t := range c.types {
		if t.CanHandle(req) {
			return t
		}
	}
	return errorHandlerType(http.StatusNotFound)
}

func (c *Conn) runRespond(h Handler) {
	if err := h.Respond(c); err != nil {
		c.handleHandlerError(err)
	}
}

func (c *Conn) handleHandlerError(err error) {
	var status StatusError
	if errors.As(err, &status) {
		c.sendError(int(status))
		return
	}
	c.env.Logger.Error("handler failed", "error", err)
	c.close()
}

// sendError replaces the active handler with an error handler for the
// given status - unless response bytes already left, in which case the
// only honest option is to drop the connection.
func (c *Conn) sendError(status int) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.responseStarted {
		c.mu.Unlock()
		c.close()
		return
	}
	h := newErrorHandler(c.env, status)
	old := c.handler
	c.handler = h
	c.mu.Unlock()

	if old != nil {
		go old.Cancelled()
	}
	c.runRespond(h)
}

// Write queues data from the active handler for the write goroutine.
// Writes from a handler that no longer owns the connection are dropped.
func (c *Conn) Write(sender Handler, data []byte) {
	c.mu.Lock()
	if c.closed || c.handler != sender {
		c.mu.Unlock()
		return
	}
	c.responseStarted = true
	c.writeQ = append(c.writeQ, data)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// End marks the response complete: remaining queued writes drain, then
// the connection tears down. The sender is notified exactly once.
func (c *Conn) End(sender Handler) {
	c.mu.Lock()
	if c.closed || c.handler != sender {
		c.mu.Unlock()
		return
	}
	c.handler = nil
	c.handlerDone = true
	empty := len(c.writeQ) == 0
	c.mu.Unlock()

	go sender.Cancelled()
	if empty {
		c.close()
		return
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Conn) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.wake:
		}
		for {
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				return
			}
			if len(c.writeQ) == 0 {
				finished := c.handlerDone
				c.mu.Unlock()
				if finished {
					c.close()
					return
				}
				break
			}
			buf := c.writeQ[0]
			if len(buf) > writeChunkBytes {
				c.writeQ[0] = buf[writeChunkBytes:]
				buf = buf[:writeChunkBytes]
			} else {
				c.writeQ = c.writeQ[1:]
			}
			c.mu.Unlock()

			if _, err := c.sock.Write(buf); err != nil {
				c.close()
				return
			}
			c.rearmTimer()
		}
	}
}

// rearmTimer enforces the idle timeout and the absolute lifetime with a
// single-shot timer, rearmed on every read and write event.
func (c *Conn) rearmTimer() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	elapsed := time.Since(c.start)
	if elapsed >= c.maxDuration {
		c.mu.Unlock()
		c.close()
		return
	}
	idle := c.idleTimeout
	if remaining := c.maxDuration - elapsed; idle > remaining {
		idle = remaining
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(idle, c.close)
	c.mu.Unlock()
}

// close releases the socket, timer and handler. Idempotent; the
// (former) handler's Cancelled runs exactly once, off this goroutine.
func (c *Conn) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	h := c.handler
	c.handler = nil
	if c.timer != nil {
		c.timer.Stop()
	}
	close(c.done)
	c.mu.Unlock()

	c.sock.Close()
	if h != nil {
		go h.Cancelled()
	}
	if c.listener != nil {
		c.listener.remove(c)
	}
}

// SendResponse serializes status line, Server header, content headers
// and body, queues it and ends the response. Handlers that stream
// instead use Write/End directly.
func (c *Conn) SendResponse(sender Handler, status int, mimeType string, body []byte, extra map[string]string) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "HTTP/1.0 %d %s\r\n", status, http.StatusText(status))
	fmt.Fprintf(&b, "Server: %s/%s\r\n", c.env.Info.ServiceName, c.env.Info.Version)
	if mimeType != "" {
		fmt.Fprintf(&b, "Content-Type: %s\r\n", mimeType)
	}
	for key, value := range extra {
		fmt.Fprintf(&b, "%s: %s\r\n", key, value)
	}
	fmt.Fprintf(&b, "Content-Length: %d\r\n\r\n", len(body))
	b.Write(body)

	c.Write(sender, b.Bytes())
	c.End(sender)
}

// SendErrorPage sends a minimal HTML body naming the status text.
func (c *Conn) SendErrorPage(sender Handler, status int) {
	text := fmt.Sprintf("%d %s", status, http.StatusText(status))
	body := fmt.Sprintf("<html><head><title>%s</title></head><body><h1>%s</h1></body></html>", text, text)
	c.SendResponse(sender, status, "text/html", []byte(body), nil)
}

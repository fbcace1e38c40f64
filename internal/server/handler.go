package server

import (
	"fmt"
	"net/http"
)

// StatusError rejects a request with a bare HTTP status. Handlers
// return it (from construction or Respond) to have the connection
// answer with the matching error page.
type StatusError int

func (e StatusError) Error() string {
	return fmt.Sprintf("%d %s", int(e), http.StatusText(int(e)))
}

// Handler answers one request/response exchange on one connection.
//
// The connection invokes ReceiveBody and Respond serially from its read
// goroutine. Cancelled is the exception: it runs exactly once at the
// end of the connection, successful or otherwise, on a separate
// goroutine that never holds the connection's lock.
type Handler interface {
	// MaxContentLength bounds the acceptable request body. The default
	// for bodyless handlers is zero; a Content-Length above the bound is
	// answered with 413 before any body is read.
	MaxContentLength() int64
	// ReceiveBody accumulates one body chunk in arrival order.
	ReceiveBody(chunk []byte) error
	// Respond runs once the declared body has fully arrived (or
	// immediately when none is expected). It must hand every byte to
	// conn.Write/conn.End; it must not touch the socket.
	Respond(c *Conn) error
	// Cancelled releases any resources the handler still holds.
	Cancelled()
}

// HandlerType pairs the dispatch predicate with the constructor for one
// handler kind. The connection asks each registered type in order and
// the first CanHandle that answers true is given the exchange;
// construction may return a StatusError to reject malformed requests
// before any body is read.
type HandlerType struct {
	CanHandle func(r *Request) bool
	New       func(r *Request, env *Env) (Handler, error)
}

// DefaultHandlerTypes is the production dispatch list, first match
// wins. The error handler is not listed; it is the implicit fallback.
func DefaultHandlerTypes() []HandlerType {
	return []HandlerType{
		uuidHandlerType(),
		contentsHandlerType(),
		changeHandlerType(),
		streamHandlerType(),
	}
}

// baseHandler carries the request and environment and accumulates body
// bytes; concrete handlers embed it and override what they need.
type baseHandler struct {
	env  *Env
	req  *Request
	body []byte
}

func (h *baseHandler) MaxContentLength() int64 { return 0 }

func (h *baseHandler) ReceiveBody(chunk []byte) error {
	h.body = append(h.body, chunk...)
	return nil
}

func (h *baseHandler) Cancelled() {}

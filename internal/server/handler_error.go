package server

// errorHandler answers with a basic HTML page naming an HTTP status.
// It doubles as the fallback when no registered handler claims a
// request (404) and as the vehicle for thrown statuses (400, 413, 431).
type errorHandler struct {
	baseHandler
	code int
}

func newErrorHandler(env *Env, code int) *errorHandler {
	return &errorHandler{baseHandler: baseHandler{env: env}, code: code}
}

func errorHandlerType(code int) HandlerType {
	return HandlerType{
		CanHandle: func(r *Request) bool { return true },
		New: func(r *Request, env *Env) (Handler, error) {
			h := newErrorHandler(env, code)
			h.req = r
			return h, nil
		},
	}
}

func (h *errorHandler) Respond(c *Conn) error {
	c.SendErrorPage(h, h.code)
	return nil
}

package server

import (
	"encoding/json"
	"net/http"

	"recordings/internal/domain"
)

// uuidHandler answers GET /uuid with the root folder's identifier.
// Clients probe this to confirm a discovered candidate really is a
// recordings server before trusting it.
type uuidHandler struct {
	baseHandler
}

func uuidHandlerType() HandlerType {
	return HandlerType{
		CanHandle: func(r *Request) bool { return r.Path == "/uuid" },
		New: func(r *Request, env *Env) (Handler, error) {
			return &uuidHandler{baseHandler{env: env, req: r}}, nil
		},
	}
}

func (h *uuidHandler) Respond(c *Conn) error {
	body, err := json.Marshal(domain.UUIDResponse{UUID: h.env.Store.Root().String()})
	if err != nil {
		return StatusError(http.StatusInternalServerError)
	}
	c.SendResponse(h, http.StatusOK, "application/json", body, nil)
	return nil
}

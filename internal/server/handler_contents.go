package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// contentsHandler answers GET /contents/<uuid-path> with the resolved
// folder's immediate children as a JSON array. Children are serialized
// without their own nested contents to bound the response size.
type contentsHandler struct {
	baseHandler
}

func contentsHandlerType() HandlerType {
	return HandlerType{
		CanHandle: func(r *Request) bool { return strings.HasPrefix(r.Path, "/contents/") },
		New: func(r *Request, env *Env) (Handler, error) {
			return &contentsHandler{baseHandler{env: env, req: r}}, nil
		},
	}
}

func (h *contentsHandler) Respond(c *Conn) error {
	path, ok := parseUUIDPath(h.req.PathSegments()[1:])
	if !ok {
		return StatusError(http.StatusNotFound)
	}
	folder, ok := h.env.Store.ItemAt(path)
	if !ok || !folder.IsFolder {
		return StatusError(http.StatusNotFound)
	}
	items, err := h.env.Store.ContentsJSON(folder.UUID)
	if err != nil {
		return StatusError(http.StatusNotFound)
	}
	body, err := json.Marshal(items)
	if err != nil {
		return StatusError(http.StatusInternalServerError)
	}
	c.SendResponse(h, http.StatusOK, "application/json", body, nil)
	return nil
}

// parseUUIDPath converts slash-delimited UUID segments; any malformed
// segment fails the whole path.
func parseUUIDPath(segments []string) ([]uuid.UUID, bool) {
	path := make([]uuid.UUID, 0, len(segments))
	for _, seg := range segments {
		id, err := uuid.Parse(seg)
		if err != nil {
			return nil, false
		}
		path = append(path, id)
	}
	return path, true
}

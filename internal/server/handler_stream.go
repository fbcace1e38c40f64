package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"recordings/internal/config"
)

// streamHandler serves a recording's audio bytes for GET
// /stream/<uuid>, honoring single-range byte requests so players can
// seek. A ranged request gets 206 with Content-Range; otherwise the
// whole file goes out with Accept-Ranges: bytes.
type streamHandler struct {
	baseHandler
}

func streamHandlerType() HandlerType {
	return HandlerType{
		CanHandle: func(r *Request) bool { return strings.HasPrefix(r.Path, "/stream/") },
		New: func(r *Request, env *Env) (Handler, error) {
			return &streamHandler{baseHandler{env: env, req: r}}, nil
		},
	}
}

func (h *streamHandler) Respond(c *Conn) error {
	// Audio playback outlives the default 60s connection bound.
	c.SetMaxConnectionDuration(config.StreamMaxConnectionDuration)

	segments := h.req.PathSegments()
	if len(segments) < 2 {
		return StatusError(http.StatusNotFound)
	}
	id, err := uuid.Parse(segments[1])
	if err != nil {
		return StatusError(http.StatusNotFound)
	}
	f, err := os.Open(h.env.Store.FilePath(id))
	if err != nil {
		return StatusError(http.StatusNotFound)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return StatusError(http.StatusInternalServerError)
	}
	size := fi.Size()
	offset, length := int64(0), size
	status := http.StatusOK
	extra := map[string]string{"Accept-Ranges": "bytes"}

	if start, end, ok := parseRange(h.req.Headers["Range"]); ok {
		status = http.StatusPartialContent
		if end >= size {
			end = size - 1
		}
		if start > end {
			// Start beyond EOF: an empty range clamped to the tail.
			offset, length = size, 0
		} else {
			offset, length = start, end-start+1
		}
		extra["Content-Range"] = fmt.Sprintf("bytes %d-%d/%d", offset, offset+length-1, size)
	}

	body := make([]byte, length)
	if length > 0 {
		if n, err := f.ReadAt(body, offset); n < len(body) && err != nil {
			return StatusError(http.StatusInternalServerError)
		}
	}
	c.SendResponse(h, status, config.AudioMIMEType, body, extra)
	return nil
}

// parseRange accepts the single "bytes=start-end" form with both bounds
// present; anything else is ignored and the full file is served.
func parseRange(header string) (start, end int64, ok bool) {
	if !strings.HasPrefix(header, "bytes=") {
		return 0, 0, false
	}
	parts := strings.Split(strings.TrimPrefix(header, "bytes="), "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, err1 := strconv.ParseInt(parts[0], 10, 64)
	end, err2 := strconv.ParseInt(parts[1], 10, 64)
	if err1 != nil || err2 != nil || start < 0 || end < 0 {
		return 0, 0, false
	}
	return start, end, true
}

package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"

	"recordings/internal/config"
	"recordings/internal/domain"
	"recordings/internal/store"
)

// changeHandler applies one client mutation: POST
// /change/<verb>/<parent-uuid-path> where the path names the *parent*
// folder of the changed item. Outcomes are domain-level: both success
// and the structured error codes travel in an HTTP 200 body so the
// client sync engine can tell definitive failures from transport ones.
type changeHandler struct {
	baseHandler
	verb domain.Verb
}

func changeHandlerType() HandlerType {
	return HandlerType{
		CanHandle: func(r *Request) bool {
			return r.Method == http.MethodPost && strings.HasPrefix(r.Path, "/change/")
		},
		New: func(r *Request, env *Env) (Handler, error) {
			segments := r.PathSegments()
			if len(segments) < 2 {
				return nil, StatusError(http.StatusNotFound)
			}
			verb, ok := domain.ParseVerb(segments[1])
			if !ok {
				return nil, StatusError(http.StatusNotFound)
			}
			return &changeHandler{baseHandler{env: env, req: r}, verb}, nil
		},
	}
}

func (h *changeHandler) MaxContentLength() int64 {
	return config.MaxChangeBodyBytes
}

func (h *changeHandler) Respond(c *Conn) error {
	code, err := h.apply()
	if err != nil {
		return err
	}

	var resp domain.ChangeResponse
	if code == "" {
		empty := ""
		resp.Success = &empty
	} else {
		s := string(code)
		resp.Error = &s
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return StatusError(http.StatusInternalServerError)
	}
	c.SendResponse(h, http.StatusOK, "application/json", body, nil)
	return nil
}

// apply runs the verb against the store. An empty ChangeError means
// success; a non-nil error escalates to an HTTP status instead.
func (h *changeHandler) apply() (domain.ChangeError, error) {
	var req domain.ChangeRequest
	if err := json.Unmarshal(h.body, &req); err != nil {
		return domain.ErrMalformedChangeObject, nil
	}
	if err := req.Validate(); err != nil {
		return domain.ErrMalformedChangeObject, nil
	}
	itemUUID, err := uuid.Parse(req.UUID)
	if err != nil {
		return domain.ErrMalformedChangeObject, nil
	}

	parentPath, ok := parseUUIDPath(h.req.PathSegments()[2:])
	if !ok {
		return domain.ErrParentNotFound, nil
	}
	parent, ok := h.env.Store.ItemAt(parentPath)
	if !ok || !parent.IsFolder {
		return domain.ErrParentNotFound, nil
	}

	st := h.env.Store
	switch h.verb {
	case domain.VerbCreate:
		if _, ok := st.Child(parent.UUID, itemUUID); ok {
			return domain.ErrItemAlreadyExists, nil
		}
		if !req.IsFolder {
			data, err := base64.StdEncoding.DecodeString(req.FileData)
			if req.FileData == "" || err != nil {
				return domain.ErrFileDataMissing, nil
			}
			if err := os.WriteFile(st.FilePath(itemUUID), data, 0644); err != nil {
				h.env.Logger.Error("could not write recording file", "uuid", itemUUID, "error", err)
				return "", StatusError(http.StatusInternalServerError)
			}
		}
		info := store.Info{UUID: itemUUID, Name: req.Name, IsFolder: req.IsFolder}
		if err := st.Add(info, parent.UUID); err != nil {
			return domain.ErrItemAlreadyExists, nil
		}
		h.env.Logger.Info("item created", "uuid", itemUUID, "name", req.Name, "isFolder", req.IsFolder)

	case domain.VerbUpdate:
		if _, ok := st.Child(parent.UUID, itemUUID); !ok {
			return domain.ErrItemNotFound, nil
		}
		if err := st.Rename(itemUUID, req.Name); err != nil {
			return domain.ErrItemNotFound, nil
		}
		h.env.Logger.Info("item renamed", "uuid", itemUUID, "name", req.Name)

	case domain.VerbDelete:
		if _, ok := st.Child(parent.UUID, itemUUID); !ok {
			return domain.ErrItemNotFound, nil
		}
		if err := st.Remove(itemUUID); err != nil {
			return domain.ErrItemNotFound, nil
		}
		h.env.Logger.Info("item deleted", "uuid", itemUUID)
	}
	return "", nil
}

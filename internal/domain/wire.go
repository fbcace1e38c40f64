package domain

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ItemJSON is the wire shape of one tree node. Contents is present only
// for folders, and only in full-tree and contents responses - change
// requests never nest.
type ItemJSON struct {
	Name     string     `json:"name"`
	UUID     string     `json:"uuid"`
	IsFolder bool       `json:"isFolder"`
	Contents []ItemJSON `json:"contents,omitempty"`
}

// ChangeRequest is the body of POST /change/<verb>/<parent-uuid-path>.
// FileData carries the base64 encoded audio payload and is required
// only when creating a recording.
type ChangeRequest struct {
	Name     string `json:"name"`
	UUID     string `json:"uuid"`
	IsFolder bool   `json:"isFolder"`
	FileData string `json:"fileDataKey,omitempty"`
}

func (r ChangeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.UUID, validation.Required, is.UUID),
	)
}

// ChangeResponse is the body of every change exchange. Exactly one of
// Success/Error is set; both travel with HTTP 200 because they are
// domain-level outcomes, not transport failures.
type ChangeResponse struct {
	Success *string `json:"success,omitempty"`
	Error   *string `json:"error,omitempty"`
}

// UUIDResponse is the body of GET /uuid.
type UUIDResponse struct {
	UUID string `json:"uuid"`
}

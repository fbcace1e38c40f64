package domain

import "errors"

// ChangeError is a definitive, non-retryable failure of one change
// exchange. It travels in the body of an HTTP 200 response as
// {"error": "<code>"} so the sync engine can interpret it; transport
// failures never produce a ChangeError.
type ChangeError string

const (
	ErrItemAlreadyExists     ChangeError = "itemAlreadyExists"
	ErrFileDataMissing       ChangeError = "fileDataMissing"
	ErrItemNotFound          ChangeError = "itemNotFound"
	ErrMalformedChangeObject ChangeError = "malformedChangeObject"
	ErrParentNotFound        ChangeError = "parentNotFound"

	// Client-side classifications; never produced by the server.
	ErrInvalidResponse ChangeError = "invalidResponse"
	ErrUnknown         ChangeError = "unknown"
)

func (e ChangeError) Error() string { return string(e) }

// ParseChangeError maps a wire error code to a ChangeError; codes the
// client does not recognize collapse to ErrUnknown, which is still
// treated as definitive.
func ParseChangeError(code string) ChangeError {
	switch e := ChangeError(code); e {
	case ErrItemAlreadyExists, ErrFileDataMissing, ErrItemNotFound,
		ErrMalformedChangeObject, ErrParentNotFound:
		return e
	}
	return ErrUnknown
}

// Sentinel errors for the store - use with errors.Is()
var (
	ErrNotFound  = errors.New("item not found")
	ErrExists    = errors.New("item already exists")
	ErrNotFolder = errors.New("item is not a folder")
)

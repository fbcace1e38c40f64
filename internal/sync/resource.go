// Package sync is the client-side engine: it mirrors a server subtree
// in a local store, captures local mutations in a durable FIFO queue
// and replays them against the HTTP API, reconciling failures.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"recordings/internal/domain"
)

// Resource is a typed description of one HTTP request/response pair:
// where to send it, what to send, and how to interpret the bytes that
// come back.
type Resource[A any] struct {
	URL    string
	Method string
	Body   []byte
	Header map[string]string
	Parse  func([]byte) (A, error)
}

// Load performs the exchange. Transport failures surface as plain
// errors; Parse decides everything else.
func Load[A any](ctx context.Context, client *http.Client, r Resource[A]) (A, error) {
	var zero A
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, r.URL, bytes.NewReader(r.Body))
	if err != nil {
		return zero, fmt.Errorf("build request: %w", err)
	}
	if len(r.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range r.Header {
		req.Header.Set(key, value)
	}
	resp, err := client.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, err
	}
	return r.Parse(data)
}

// JSONResource describes a GET whose response unmarshals into A.
func JSONResource[A any](url string) Resource[A] {
	return Resource[A]{
		URL: url,
		Parse: func(data []byte) (A, error) {
			var out A
			if err := json.Unmarshal(data, &out); err != nil {
				return out, domain.ErrInvalidResponse
			}
			return out, nil
		},
	}
}

// PostJSONResource describes a POST of body whose response unmarshals
// into A.
func PostJSONResource[A any](url string, body any) (Resource[A], error) {
	data, err := json.Marshal(body)
	if err != nil {
		return Resource[A]{}, fmt.Errorf("encode body: %w", err)
	}
	r := JSONResource[A](url)
	r.Method = http.MethodPost
	r.Body = data
	return r, nil
}

// ContentsResource lists the immediate children of the folder at the
// given root-relative UUID path.
func ContentsResource(remoteURL string, folderPath []uuid.UUID) Resource[[]domain.ItemJSON] {
	return JSONResource[[]domain.ItemJSON](remoteURL + "/contents/" + joinUUIDPath(folderPath))
}

// StreamResource fetches a recording's raw audio bytes. A non-empty
// byteRange ("start-end") becomes a Range header.
func StreamResource(remoteURL string, id uuid.UUID, byteRange string) Resource[[]byte] {
	r := Resource[[]byte]{
		URL:   remoteURL + "/stream/" + id.String(),
		Parse: func(data []byte) ([]byte, error) { return data, nil },
	}
	if byteRange != "" {
		r.Header = map[string]string{"Range": "bytes=" + byteRange}
	}
	return r
}

// UUIDResource probes a candidate server for its root identifier.
func UUIDResource(remoteURL string) Resource[domain.UUIDResponse] {
	return JSONResource[domain.UUIDResponse](remoteURL + "/uuid")
}

func joinUUIDPath(path []uuid.UUID) string {
	parts := make([]string, 0, len(path))
	for _, id := range path {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, "/")
}

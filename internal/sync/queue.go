package sync

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"recordings/internal/domain"
)

// PendingItem is one queued, not-yet-confirmed local mutation. UUIDPath
// runs from the root to the affected item, inclusive, so its last
// element names the item and the rest name the parent folder.
type PendingItem struct {
	Change        domain.Verb `json:"change"`
	UUIDPath      []uuid.UUID `json:"uuidPath"`
	Name          string      `json:"name"`
	IsFolder      bool        `json:"isFolder"`
	RecordingPath string      `json:"recordingURL,omitempty"`
}

// matches reports whether the pending item targets the given item path.
func (p PendingItem) matches(path []uuid.UUID) bool {
	if len(p.UUIDPath) != len(path) {
		return false
	}
	for i := range path {
		if p.UUIDPath[i] != path[i] {
			return false
		}
	}
	return true
}

// resource builds the wire exchange for this pending item. For the
// creation of a recording, the audio file is read and embedded base64
// encoded; an unreadable file sends no payload, which the server
// answers with fileDataMissing so the change resolves definitively.
func (p PendingItem) resource(remoteURL string) Resource[struct{}] {
	itemUUID := p.UUIDPath[len(p.UUIDPath)-1]
	parentPath := p.UUIDPath[:len(p.UUIDPath)-1]

	body := domain.ChangeRequest{Name: p.Name, UUID: itemUUID.String(), IsFolder: p.IsFolder}
	if p.Change == domain.VerbCreate && !p.IsFolder && p.RecordingPath != "" {
		if data, err := os.ReadFile(p.RecordingPath); err == nil {
			body.FileData = base64.StdEncoding.EncodeToString(data)
		}
	}
	data, _ := json.Marshal(body)

	return Resource[struct{}]{
		URL:    fmt.Sprintf("%s/change/%s/%s", remoteURL, p.Change, joinUUIDPath(parentPath)),
		Method: "POST",
		Body:   data,
		Parse: func(data []byte) (struct{}, error) {
			var resp domain.ChangeResponse
			if err := json.Unmarshal(data, &resp); err != nil {
				return struct{}{}, domain.ErrInvalidResponse
			}
			if resp.Error != nil {
				return struct{}{}, domain.ParseChangeError(*resp.Error)
			}
			if resp.Success == nil {
				return struct{}{}, domain.ErrInvalidResponse
			}
			return struct{}{}, nil
		},
	}
}

// queue is the durable FIFO of pending mutations. Its document is
// separate from the store's so a half-synced tree and its outstanding
// work survive a relaunch independently.
type queue struct {
	path  string
	items []PendingItem
}

// loadQueue reads the persisted queue; a missing file is an empty
// queue, a malformed one is an error for the caller to report.
func loadQueue(path string) (*queue, error) {
	q := &queue{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return q, nil
	}
	if err := json.Unmarshal(data, &q.items); err != nil {
		return &queue{path: path}, fmt.Errorf("decode queue: %w", err)
	}
	return q, nil
}

// save rewrites the whole queue document atomically.
func (q *queue) save() error {
	data, err := json.Marshal(q.items)
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}
	if err := atomic.WriteFile(q.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("persist queue: %w", err)
	}
	return nil
}

func (q *queue) empty() bool { return len(q.items) == 0 }

func (q *queue) head() PendingItem { return q.items[0] }

func (q *queue) push(p PendingItem) { q.items = append(q.items, p) }

func (q *queue) pop() { q.items = q.items[1:] }

// next returns the first queued change for the item path.
func (q *queue) next(path []uuid.UUID) (domain.Verb, bool) {
	for _, p := range q.items {
		if p.matches(path) {
			return p.Change, true
		}
	}
	return "", false
}

// latest returns the last queued change for the item path.
func (q *queue) latest(path []uuid.UUID) (domain.Verb, bool) {
	for i := len(q.items) - 1; i >= 0; i-- {
		if q.items[i].matches(path) {
			return q.items[i].Change, true
		}
	}
	return "", false
}

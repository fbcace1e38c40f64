package sync

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"recordings/internal/domain"
)

func TestQueuePersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	root := uuid.Nil
	first := PendingItem{Change: domain.VerbCreate, UUIDPath: []uuid.UUID{root, uuid.New()}, Name: "a", IsFolder: true}
	second := PendingItem{Change: domain.VerbDelete, UUIDPath: []uuid.UUID{root, uuid.New()}, Name: "b"}

	q, err := loadQueue(path)
	if err != nil {
		t.Fatalf("loadQueue() on missing file error = %v", err)
	}
	if !q.empty() {
		t.Fatal("fresh queue not empty")
	}
	q.push(first)
	q.push(second)
	if err := q.save(); err != nil {
		t.Fatalf("save() error = %v", err)
	}

	reloaded, err := loadQueue(path)
	if err != nil {
		t.Fatalf("loadQueue() error = %v", err)
	}
	if len(reloaded.items) != 2 {
		t.Fatalf("got %d items, want 2", len(reloaded.items))
	}
	if reloaded.head().Name != "a" || reloaded.items[1].Name != "b" {
		t.Errorf("order not preserved: %+v", reloaded.items)
	}

	reloaded.pop()
	if reloaded.head().Change != domain.VerbDelete {
		t.Errorf("head after pop = %s, want delete", reloaded.head().Change)
	}
}

func TestLoadQueueMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	q, err := loadQueue(path)
	if err == nil {
		t.Fatal("loadQueue() on malformed file did not report")
	}
	if !q.empty() {
		t.Errorf("malformed queue yielded %d items, want 0", len(q.items))
	}
}

func TestNextAndLatest(t *testing.T) {
	root := uuid.Nil
	item := uuid.New()
	path := []uuid.UUID{root, item}
	other := []uuid.UUID{root, uuid.New()}

	q := &queue{}
	q.push(PendingItem{Change: domain.VerbCreate, UUIDPath: path, Name: "x"})
	q.push(PendingItem{Change: domain.VerbUpdate, UUIDPath: other, Name: "y"})
	q.push(PendingItem{Change: domain.VerbUpdate, UUIDPath: path, Name: "x2"})

	if verb, ok := q.next(path); !ok || verb != domain.VerbCreate {
		t.Errorf("next = (%s, %v), want (create, true)", verb, ok)
	}
	if verb, ok := q.latest(path); !ok || verb != domain.VerbUpdate {
		t.Errorf("latest = (%s, %v), want (update, true)", verb, ok)
	}
	if _, ok := q.next([]uuid.UUID{root}); ok {
		t.Error("next matched a path with no queued changes")
	}
}

func TestPendingItemResource(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "take.m4a")
	if err := os.WriteFile(audio, []byte("pcm"), 0o644); err != nil {
		t.Fatal(err)
	}
	root := uuid.Nil
	item := uuid.New()
	p := PendingItem{
		Change:        domain.VerbCreate,
		UUIDPath:      []uuid.UUID{root, item},
		Name:          "take",
		RecordingPath: audio,
	}

	r := p.resource("http://server")
	wantURL := "http://server/change/create/" + root.String()
	if r.URL != wantURL {
		t.Errorf("URL = %q, want %q", r.URL, wantURL)
	}
	if r.Method != "POST" {
		t.Errorf("Method = %q, want POST", r.Method)
	}

	var body domain.ChangeRequest
	if err := json.Unmarshal(r.Body, &body); err != nil {
		t.Fatalf("body not a change request: %v", err)
	}
	if body.UUID != item.String() || body.Name != "take" || body.IsFolder {
		t.Errorf("body = %+v", body)
	}
	if body.FileData == "" {
		t.Error("recording create carries no file payload")
	}
	if !strings.Contains(string(r.Body), "fileDataKey") {
		t.Errorf("payload uses wrong file data key: %s", r.Body)
	}
}

func TestChangeResponseParsing(t *testing.T) {
	p := PendingItem{Change: domain.VerbCreate, UUIDPath: []uuid.UUID{uuid.Nil, uuid.New()}, Name: "x", IsFolder: true}
	parse := p.resource("http://server").Parse

	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"success", `{"success":""}`, nil},
		{"domain error", `{"error":"parentNotFound"}`, domain.ErrParentNotFound},
		{"unknown error code", `{"error":"surprising"}`, domain.ErrUnknown},
		{"neither key", `{}`, domain.ErrInvalidResponse},
		{"not json", `<html>oops</html>`, domain.ErrInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse([]byte(tt.body))
			if err != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, want %v", tt.body, err, tt.wantErr)
			}
		})
	}
}

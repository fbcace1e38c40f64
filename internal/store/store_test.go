package store

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"

	"recordings/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func mustAdd(t *testing.T, s *Store, name string, isFolder bool, parent uuid.UUID) Info {
	t.Helper()
	info := Info{UUID: uuid.New(), Name: name, IsFolder: isFolder}
	if err := s.Add(info, parent); err != nil {
		t.Fatalf("Add(%q) error = %v", name, err)
	}
	return info
}

func TestAddSortsByName(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, "cello", true, s.Root())
	mustAdd(t, s, "alto", true, s.Root())
	mustAdd(t, s, "bass", false, s.Root())

	children, err := s.Contents(s.Root())
	if err != nil {
		t.Fatalf("Contents() error = %v", err)
	}
	want := []string{"alto", "bass", "cello"}
	if len(children) != len(want) {
		t.Fatalf("got %d children, want %d", len(children), len(want))
	}
	for i, name := range want {
		if children[i].Name != name {
			t.Errorf("children[%d].Name = %q, want %q", i, children[i].Name, name)
		}
	}
}

func TestAddSortBreaksTiesByUUID(t *testing.T) {
	s := newTestStore(t)
	a := Info{UUID: uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000"), Name: "same", IsFolder: true}
	b := Info{UUID: uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000"), Name: "same", IsFolder: true}
	if err := s.Add(b, s.Root()); err != nil {
		t.Fatalf("Add(b) error = %v", err)
	}
	if err := s.Add(a, s.Root()); err != nil {
		t.Fatalf("Add(a) error = %v", err)
	}

	children, _ := s.Contents(s.Root())
	if children[0].UUID != a.UUID || children[1].UUID != b.UUID {
		t.Errorf("tie not broken by uuid: got [%s %s]", children[0].UUID, children[1].UUID)
	}
}

func TestAddErrors(t *testing.T) {
	s := newTestStore(t)
	folder := mustAdd(t, s, "folder", true, s.Root())
	rec := mustAdd(t, s, "rec", false, folder.UUID)

	tests := []struct {
		name    string
		item    Info
		parent  uuid.UUID
		wantErr error
	}{
		{
			name:    "unknown parent",
			item:    Info{UUID: uuid.New(), Name: "x", IsFolder: true},
			parent:  uuid.New(),
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "parent is a recording",
			item:    Info{UUID: uuid.New(), Name: "x", IsFolder: true},
			parent:  rec.UUID,
			wantErr: domain.ErrNotFolder,
		},
		{
			name:    "duplicate uuid",
			item:    Info{UUID: folder.UUID, Name: "other", IsFolder: true},
			parent:  s.Root(),
			wantErr: domain.ErrExists,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Add(tt.item, tt.parent); err != tt.wantErr {
				t.Errorf("Add() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddAnnouncesIndexAndPath(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, "alpha", true, s.Root())

	var got Event
	unsub := s.Subscribe(func(ev Event) { got = ev })
	defer unsub()

	item := mustAdd(t, s, "aardvark", false, s.Root())

	if got.Reason != Added {
		t.Fatalf("Reason = %v, want Added", got.Reason)
	}
	if got.NewIndex != 0 {
		t.Errorf("NewIndex = %d, want 0", got.NewIndex)
	}
	if len(got.UUIDPath) != 2 || got.UUIDPath[0] != s.Root() || got.UUIDPath[1] != item.UUID {
		t.Errorf("UUIDPath = %v, want [root %s]", got.UUIDPath, item.UUID)
	}
}

func TestRenameAnnouncesBothIndexes(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, "alpha", true, s.Root())
	item := mustAdd(t, s, "beta", true, s.Root())

	var got Event
	unsub := s.Subscribe(func(ev Event) { got = ev })
	defer unsub()

	if err := s.Rename(item.UUID, "aaa"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if got.Reason != Renamed {
		t.Fatalf("Reason = %v, want Renamed", got.Reason)
	}
	if got.OldIndex != 1 || got.NewIndex != 0 {
		t.Errorf("indexes = (%d, %d), want (1, 0)", got.OldIndex, got.NewIndex)
	}
	if got.Name != "aaa" {
		t.Errorf("Name = %q, want %q", got.Name, "aaa")
	}
}

func TestRenameRoot(t *testing.T) {
	s := newTestStore(t)
	if err := s.Rename(s.Root(), "x"); err != domain.ErrNotFound {
		t.Errorf("Rename(root) error = %v, want %v", err, domain.ErrNotFound)
	}
}

func TestRemoveCascades(t *testing.T) {
	s := newTestStore(t)
	folder := mustAdd(t, s, "folder", true, s.Root())
	rec := mustAdd(t, s, "rec", false, folder.UUID)
	if err := os.WriteFile(s.FilePath(rec.UUID), []byte("audio"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var events []Event
	unsub := s.Subscribe(func(ev Event) { events = append(events, ev) })
	defer unsub()

	if err := s.Remove(folder.UUID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Reason != Removed || events[0].UUID != folder.UUID {
		t.Errorf("event = %+v, want Removed for the folder", events[0])
	}
	if _, ok := s.Info(rec.UUID); ok {
		t.Error("descendant still present after cascade")
	}
	if _, err := os.Stat(s.FilePath(rec.UUID)); !os.IsNotExist(err) {
		t.Errorf("recording file not removed, stat err = %v", err)
	}
	if children, _ := s.Contents(s.Root()); len(children) != 0 {
		t.Errorf("root has %d children, want 0", len(children))
	}
}

func TestItemAt(t *testing.T) {
	s := newTestStore(t)
	folder := mustAdd(t, s, "folder", true, s.Root())
	rec := mustAdd(t, s, "rec", false, folder.UUID)

	tests := []struct {
		name   string
		path   []uuid.UUID
		want   uuid.UUID
		wantOK bool
	}{
		{"root", []uuid.UUID{s.Root()}, s.Root(), true},
		{"nested recording", []uuid.UUID{s.Root(), folder.UUID, rec.UUID}, rec.UUID, true},
		{"first element not root", []uuid.UUID{folder.UUID, rec.UUID}, uuid.Nil, false},
		{"broken link", []uuid.UUID{s.Root(), rec.UUID}, uuid.Nil, false},
		{"empty", nil, uuid.Nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.ItemAt(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("ItemAt() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.UUID != tt.want {
				t.Errorf("ItemAt() = %s, want %s", got.UUID, tt.want)
			}
		})
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := Open(dir, logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	folder := mustAdd(t, s, "folder", true, s.Root())
	rec := mustAdd(t, s, "rec", false, folder.UUID)

	reopened, err := Open(dir, logger)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	got, ok := reopened.ItemAt([]uuid.UUID{reopened.Root(), folder.UUID, rec.UUID})
	if !ok {
		t.Fatal("recording missing after reopen")
	}
	if got.Name != "rec" || got.IsFolder {
		t.Errorf("got %+v, want the persisted recording", got)
	}
}

func TestOpenToleratesMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/store.json", []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(dir, logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if children, _ := s.Contents(s.Root()); len(children) != 0 {
		t.Errorf("got %d children from malformed document, want 0", len(children))
	}
}

func TestSetContents(t *testing.T) {
	s := newTestStore(t)
	keepFolder := mustAdd(t, s, "keep", true, s.Root())
	nested := mustAdd(t, s, "nested", false, keepFolder.UUID)
	mustAdd(t, s, "drop", false, s.Root())
	adopted := Info{UUID: uuid.New(), Name: "from-server", IsFolder: false}

	var got Event
	unsub := s.Subscribe(func(ev Event) { got = ev })
	defer unsub()

	err := s.SetContents(s.Root(), []Info{
		{UUID: keepFolder.UUID, Name: "keep", IsFolder: true},
		adopted,
	})
	if err != nil {
		t.Fatalf("SetContents() error = %v", err)
	}

	children, _ := s.Contents(s.Root())
	if len(children) != 2 {
		t.Fatalf("got %d children, want 2", len(children))
	}
	if _, ok := s.Child(keepFolder.UUID, nested.UUID); !ok {
		t.Error("re-adopted folder lost its loaded subtree")
	}
	if _, ok := s.Info(adopted.UUID); !ok {
		t.Error("server item not adopted")
	}
	if got.Reason != Reloaded || got.UUID != s.Root() {
		t.Errorf("event = %+v, want Reloaded for the folder", got)
	}
}

func TestContentsJSONIsShallow(t *testing.T) {
	s := newTestStore(t)
	folder := mustAdd(t, s, "folder", true, s.Root())
	mustAdd(t, s, "inner", false, folder.UUID)

	items, err := s.ContentsJSON(s.Root())
	if err != nil {
		t.Fatalf("ContentsJSON() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Contents != nil {
		t.Errorf("listing nests contents, want shallow entries")
	}
}

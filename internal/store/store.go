package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"recordings/internal/config"
	"recordings/internal/domain"
)

const storeLocation = "store.json"

// Store is the authoritative in-memory item tree, persisted as a single
// JSON document after every mutation. All access is serialized behind
// one mutex: the Store is the single writer context for tree edits.
type Store struct {
	mu      sync.Mutex
	dataDir string
	nodes   map[uuid.UUID]*node
	subs    map[int]func(Event)
	nextSub int
	logger  *slog.Logger
}

// Open loads the tree from <dataDir>/store.json. A missing or malformed
// document yields an empty root folder rather than an error.
func Open(dataDir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Store{
		dataDir: dataDir,
		nodes:   make(map[uuid.UUID]*node),
		subs:    make(map[int]func(Event)),
		logger:  logger,
	}
	s.nodes[RootUUID] = &node{uuid: RootUUID, isFolder: true}

	data, err := os.ReadFile(filepath.Join(dataDir, storeLocation))
	if err != nil {
		return s, nil
	}
	var root domain.ItemJSON
	if err := json.Unmarshal(data, &root); err != nil || !root.IsFolder {
		logger.Warn("ignoring malformed store document", "path", storeLocation, "error", err)
		return s, nil
	}
	for _, child := range root.Contents {
		s.graftLocked(child, RootUUID)
	}
	return s, nil
}

// graftLocked rebuilds one persisted subtree into the arena.
func (s *Store) graftLocked(item domain.ItemJSON, parent uuid.UUID) {
	id, err := uuid.Parse(item.UUID)
	if err != nil {
		s.logger.Warn("skipping item with malformed uuid", "uuid", item.UUID)
		return
	}
	if _, ok := s.nodes[id]; ok {
		return
	}
	n := &node{uuid: id, name: item.Name, isFolder: item.IsFolder, parent: parent}
	s.nodes[id] = n
	s.nodes[parent].children = append(s.nodes[parent].children, id)
	for _, child := range item.Contents {
		s.graftLocked(child, id)
	}
	s.sortChildrenLocked(s.nodes[parent])
}

// Root returns the root folder's identifier.
func (s *Store) Root() uuid.UUID { return RootUUID }

// DataDir is the directory holding the store document and audio files.
func (s *Store) DataDir() string { return s.dataDir }

// FilePath names the backing audio file for a recording UUID.
func (s *Store) FilePath(id uuid.UUID) string {
	return filepath.Join(s.dataDir, id.String()+config.FileExtension)
}

// Info returns a snapshot of the named item.
func (s *Store) Info(id uuid.UUID) (Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return Info{}, false
	}
	return n.info(), true
}

// Contents lists a folder's immediate children in sibling order.
func (s *Store) Contents(folder uuid.UUID) ([]Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[folder]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !n.isFolder {
		return nil, domain.ErrNotFolder
	}
	infos := make([]Info, 0, len(n.children))
	for _, id := range n.children {
		infos = append(infos, s.nodes[id].info())
	}
	return infos, nil
}

// ItemAt resolves a root-relative UUID path by descending child by
// child. The first path element must name the root itself.
func (s *Store) ItemAt(path []uuid.UUID) (Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.itemAtLocked(path)
	if !ok {
		return Info{}, false
	}
	return n.info(), true
}

func (s *Store) itemAtLocked(path []uuid.UUID) (*node, bool) {
	if len(path) == 0 || path[0] != RootUUID {
		return nil, false
	}
	n := s.nodes[RootUUID]
	for _, id := range path[1:] {
		child, ok := s.nodes[id]
		if !ok || child.parent != n.uuid {
			return nil, false
		}
		n = child
	}
	return n, true
}

// Child looks up a direct child of parent by UUID.
func (s *Store) Child(parent, id uuid.UUID) (Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok || n.parent != parent {
		return Info{}, false
	}
	return n.info(), true
}

// UUIDPath returns the path from the root to the item, inclusive.
func (s *Store) UUIDPath(id uuid.UUID) ([]uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uuidPathLocked(id)
}

func (s *Store) uuidPathLocked(id uuid.UUID) ([]uuid.UUID, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return nil, false
	}
	var rev []uuid.UUID
	for {
		rev = append(rev, n.uuid)
		if n.uuid == RootUUID {
			break
		}
		n = s.nodes[n.parent]
	}
	path := make([]uuid.UUID, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		path = append(path, rev[i])
	}
	return path, true
}

// Add inserts item under parent, re-sorts the siblings and persists.
func (s *Store) Add(item Info, parent uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.nodes[parent]
	if !ok {
		return domain.ErrNotFound
	}
	if !p.isFolder {
		return domain.ErrNotFolder
	}
	if _, ok := s.nodes[item.UUID]; ok {
		return domain.ErrExists
	}

	n := &node{uuid: item.UUID, name: item.Name, isFolder: item.IsFolder, parent: parent}
	s.nodes[item.UUID] = n
	p.children = append(p.children, item.UUID)
	s.sortChildrenLocked(p)

	err := s.persistLocked()
	path, _ := s.uuidPathLocked(item.UUID)
	s.notifyLocked(Event{
		Reason:   Added,
		UUID:     item.UUID,
		Name:     item.Name,
		IsFolder: item.IsFolder,
		Parent:   parent,
		UUIDPath: path,
		NewIndex: s.indexLocked(p, item.UUID),
	})
	return err
}

// Remove deletes the item and, for folders, every descendant first so
// recording files are cleaned up depth-first. The removal is announced
// once, for the removed item only.
func (s *Store) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok || id == RootUUID {
		return domain.ErrNotFound
	}
	p := s.nodes[n.parent]
	oldIndex := s.indexLocked(p, id)
	path, _ := s.uuidPathLocked(id)

	s.deleteSubtreeLocked(n, true)
	p.children = removeID(p.children, id)

	err := s.persistLocked()
	s.notifyLocked(Event{
		Reason:   Removed,
		UUID:     id,
		Name:     n.name,
		IsFolder: n.isFolder,
		Parent:   p.uuid,
		UUIDPath: path,
		OldIndex: oldIndex,
	})
	return err
}

// deleteSubtreeLocked drops a node and its descendants from the arena.
// Recording files are removed best-effort when removeFiles is set.
func (s *Store) deleteSubtreeLocked(n *node, removeFiles bool) {
	for _, childID := range n.children {
		s.deleteSubtreeLocked(s.nodes[childID], removeFiles)
	}
	if removeFiles && !n.isFolder {
		if err := os.Remove(s.FilePath(n.uuid)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("could not remove recording file", "uuid", n.uuid, "error", err)
		}
	}
	delete(s.nodes, n.uuid)
}

// Rename updates the item's name, re-sorts its siblings and persists.
// The event carries both the old and the new sibling index.
func (s *Store) Rename(id uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok || id == RootUUID {
		return domain.ErrNotFound
	}
	p := s.nodes[n.parent]
	oldIndex := s.indexLocked(p, id)
	n.name = name
	s.sortChildrenLocked(p)
	newIndex := s.indexLocked(p, id)

	err := s.persistLocked()
	path, _ := s.uuidPathLocked(id)
	s.notifyLocked(Event{
		Reason:   Renamed,
		UUID:     id,
		Name:     name,
		IsFolder: n.isFolder,
		Parent:   p.uuid,
		UUIDPath: path,
		OldIndex: oldIndex,
		NewIndex: newIndex,
	})
	return err
}

// SetContents replaces a folder's children wholesale, as when adopting a
// server listing. Children present in items keep their subtrees; the
// rest are dropped from the arena without touching audio files. A single
// Reloaded event is announced for the folder.
func (s *Store) SetContents(folder uuid.UUID, items []Info) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.nodes[folder]
	if !ok {
		return domain.ErrNotFound
	}
	if !f.isFolder {
		return domain.ErrNotFolder
	}

	keep := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		keep[item.UUID] = true
	}
	for _, childID := range f.children {
		if !keep[childID] {
			s.deleteSubtreeLocked(s.nodes[childID], false)
		}
	}

	children := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if n, ok := s.nodes[item.UUID]; ok && n.parent == folder {
			n.name = item.Name
		} else {
			s.nodes[item.UUID] = &node{uuid: item.UUID, name: item.Name, isFolder: item.IsFolder, parent: folder}
		}
		children = append(children, item.UUID)
	}
	f.children = children
	s.sortChildrenLocked(f)

	err := s.persistLocked()
	path, _ := s.uuidPathLocked(folder)
	s.notifyLocked(Event{
		Reason:   Reloaded,
		UUID:     folder,
		Name:     f.name,
		IsFolder: true,
		Parent:   f.parent,
		UUIDPath: path,
	})
	return err
}

// NotifyReloaded announces a Reloaded event for the item at its current
// sibling index, e.g. after the server confirmed a pending change.
func (s *Store) NotifyReloaded(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok || id == RootUUID {
		return
	}
	p := s.nodes[n.parent]
	index := s.indexLocked(p, id)
	path, _ := s.uuidPathLocked(id)
	s.notifyLocked(Event{
		Reason:   Reloaded,
		UUID:     id,
		Name:     n.name,
		IsFolder: n.isFolder,
		Parent:   p.uuid,
		UUIDPath: path,
		OldIndex: index,
		NewIndex: index,
	})
}

func (s *Store) sortChildrenLocked(p *node) {
	sort.SliceStable(p.children, func(i, j int) bool {
		return less(s.nodes[p.children[i]], s.nodes[p.children[j]])
	})
}

func (s *Store) indexLocked(p *node, id uuid.UUID) int {
	for i, childID := range p.children {
		if childID == id {
			return i
		}
	}
	return -1
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

// jsonTreeLocked serializes the subtree rooted at n in the wire shape.
func (s *Store) jsonTreeLocked(n *node) domain.ItemJSON {
	item := domain.ItemJSON{Name: n.name, UUID: n.uuid.String(), IsFolder: n.isFolder}
	if n.isFolder {
		item.Contents = make([]domain.ItemJSON, 0, len(n.children))
		for _, childID := range n.children {
			item.Contents = append(item.Contents, s.jsonTreeLocked(s.nodes[childID]))
		}
	}
	return item
}

// ContentsJSON lists a folder's children in the wire shape without
// nested contents, bounding the response size of a contents exchange.
func (s *Store) ContentsJSON(folder uuid.UUID) ([]domain.ItemJSON, error) {
	infos, err := s.Contents(folder)
	if err != nil {
		return nil, err
	}
	items := make([]domain.ItemJSON, 0, len(infos))
	for _, info := range infos {
		items = append(items, domain.ItemJSON{Name: info.Name, UUID: info.UUID.String(), IsFolder: info.IsFolder})
	}
	return items, nil
}

// persistLocked rewrites the whole document. The write goes to a temp
// file first and is renamed into place so a crash cannot leave a
// truncated store behind.
func (s *Store) persistLocked() error {
	data, err := json.Marshal(s.jsonTreeLocked(s.nodes[RootUUID]))
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := atomic.WriteFile(filepath.Join(s.dataDir, storeLocation), bytes.NewReader(data)); err != nil {
		s.logger.Error("could not persist store", "error", err)
		return fmt.Errorf("persist store: %w", err)
	}
	return nil
}

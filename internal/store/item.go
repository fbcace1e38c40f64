package store

import (
	"github.com/google/uuid"
)

// RootUUID is the fixed, well-known identifier of the root folder.
var RootUUID = uuid.Nil

// Info is an immutable snapshot of one tree node.
type Info struct {
	UUID     uuid.UUID
	Name     string
	IsFolder bool
}

// node is the arena representation of an item. Ownership is exclusive
// to the Store; parent/child links are plain identifiers, so there are
// no back-reference cycles to manage.
type node struct {
	uuid     uuid.UUID
	name     string
	isFolder bool
	parent   uuid.UUID
	children []uuid.UUID
}

func (n *node) info() Info {
	return Info{UUID: n.uuid, Name: n.name, IsFolder: n.isFolder}
}

// less orders siblings by name ascending. Equal names tie-break by UUID
// string order so listings are deterministic.
func less(a, b *node) bool {
	if a.name != b.name {
		return a.name < b.name
	}
	return a.uuid.String() < b.uuid.String()
}

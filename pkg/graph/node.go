// Package graph defines construction graphs: immutable DAGs of primitives,
// transforms, Boolean operations and groups that evaluate to solids through
// a kernel.Kernel.
package graph

import (
	"crypto/sha256"
	"encoding/hex"
)

// NodeID identifies a node. IDs made by NewNodeID are content hashes of the
// node's path in the construction.
type NodeID string

// NewNodeID derives an ID from a path such as "bracket/hole".
func NewNodeID(path string) NodeID {
	sum := sha256.Sum256([]byte(path))
	return NodeID(hex.EncodeToString(sum[:]))
}

// Short returns the first eight characters of the ID for messages.
func (id NodeID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

func (id NodeID) IsZero() bool { return id == "" }

// NodeKind enumerates the types of nodes in a construction graph.
type NodeKind int

const (
	NodePrimitive NodeKind = iota // box, cylinder or prism
	NodeTransform                 // placement of the children
	NodeBoolean                   // fuse, cut or common of the children
	NodeGroup                     // logical grouping
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "primitive"
	case NodeTransform:
		return "transform"
	case NodeBoolean:
		return "boolean"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Node is the element of a construction graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

package graph

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// ValidationSeverity indicates whether a validation finding blocks evaluation
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks evaluation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// HasErrors reports whether any finding blocks evaluation.
func HasErrors(errs []ValidationError) bool {
	return lo.SomeBy(errs, func(e ValidationError) bool { return e.Severity == SeverityError })
}

// Validate runs the structural and parameter checks on g and returns the
// findings in a stable order. It never mutates the graph.
func Validate(g *Graph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateRoots(g)...)
	errs = append(errs, validateData(g)...)
	return errs
}

func sortedIDs(g *Graph) []NodeID {
	ids := lo.Keys(g.Nodes)
	slices.Sort(ids)
	return ids
}

// validateDAG checks for cycles using DFS with 3-color marking.
func validateDAG(g *Graph) []ValidationError {
	const (
		white = iota
		gray
		black
	)
	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool // returns true if cycle found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}
		color[id] = gray
		if node, ok := g.Nodes[id]; ok {
			for _, childID := range node.Children {
				if visit(childID) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for _, id := range sortedIDs(g) {
		if color[id] == white && visit(id) {
			break
		}
	}
	return errs
}

// validateReferences checks that every child ID points to an existing node.
func validateReferences(g *Graph) []ValidationError {
	var errs []ValidationError
	for _, id := range sortedIDs(g) {
		for _, childID := range g.Nodes[id].Children {
			if _, ok := g.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   id,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateNames checks that no two nodes share a name and that the name
// index points at existing nodes.
func validateNames(g *Graph) []ValidationError {
	var errs []ValidationError
	names := lo.Keys(g.NameIndex)
	slices.Sort(names)
	for _, name := range names {
		id := g.NameIndex[name]
		if _, ok := g.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}
	byName := lo.GroupBy(lo.Filter(sortedIDs(g), func(id NodeID, _ int) bool {
		return g.Nodes[id].Name != ""
	}), func(id NodeID) string { return g.Nodes[id].Name })
	dup := lo.Keys(byName)
	slices.Sort(dup)
	for _, name := range dup {
		if n := len(byName[name]); n > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, n),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateRoots checks that every root exists and warns about nodes no root
// reaches.
func validateRoots(g *Graph) []ValidationError {
	var errs []ValidationError
	if len(g.Nodes) > 0 && len(g.Roots) == 0 {
		errs = append(errs, ValidationError{
			Message:  "graph has nodes but no roots",
			Severity: SeverityError,
		})
	}
	reachable := make(map[NodeID]bool)
	var queue []NodeID
	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
			continue
		}
		if !reachable[rid] {
			reachable[rid] = true
			queue = append(queue, rid)
		}
	}
	for len(queue) > 0 {
		n := g.Nodes[queue[0]]
		queue = queue[1:]
		if n == nil {
			continue
		}
		for _, c := range n.Children {
			if !reachable[c] {
				reachable[c] = true
				queue = append(queue, c)
			}
		}
	}
	for _, id := range sortedIDs(g) {
		if !reachable[id] {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  "node is not reachable from any root",
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// validateData checks that each node carries the payload of its kind with
// usable parameters.
func validateData(g *Graph) []ValidationError {
	var errs []ValidationError
	fail := func(id NodeID, format string, args ...interface{}) {
		errs = append(errs, ValidationError{
			NodeID:   id,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}
	for _, id := range sortedIDs(g) {
		n := g.Nodes[id]
		switch d := n.Data.(type) {
		case BoxData:
			if n.Kind != NodePrimitive {
				fail(id, "box data on %s node", n.Kind)
			}
			if d.Dimensions.X <= 0 || d.Dimensions.Y <= 0 || d.Dimensions.Z <= 0 {
				fail(id, "box dimensions must be positive, got %v", d.Dimensions)
			}
		case CylinderData:
			if n.Kind != NodePrimitive {
				fail(id, "cylinder data on %s node", n.Kind)
			}
			if d.Radius <= 0 || d.Height <= 0 {
				fail(id, "cylinder radius and height must be positive")
			}
			if d.Segments != 0 && d.Segments < 3 {
				fail(id, "cylinder needs at least 3 segments, got %d", d.Segments)
			}
		case PrismData:
			if n.Kind != NodePrimitive {
				fail(id, "prism data on %s node", n.Kind)
			}
			if len(d.Profile) < 3 {
				fail(id, "prism profile needs at least 3 points, got %d", len(d.Profile))
			}
			if d.Height <= 0 {
				fail(id, "prism height must be positive")
			}
		case TransformData:
			if n.Kind != NodeTransform {
				fail(id, "transform data on %s node", n.Kind)
			}
		case BooleanData:
			if n.Kind != NodeBoolean {
				fail(id, "boolean data on %s node", n.Kind)
			}
			if len(n.Children) < 2 {
				fail(id, "%s needs at least 2 operands, got %d", d.Op, len(n.Children))
			}
		case GroupData:
			if n.Kind != NodeGroup {
				fail(id, "group data on %s node", n.Kind)
			}
		case nil:
			if n.Kind != NodeGroup {
				fail(id, "%s node has no data", n.Kind)
			}
		default:
			fail(id, "unsupported data type %T", n.Data)
		}
		if n.Kind == NodePrimitive && len(n.Children) > 0 {
			fail(id, "primitive node has %d children", len(n.Children))
		}
	}
	return errs
}

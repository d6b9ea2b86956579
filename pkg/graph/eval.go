package graph

import (
	"errors"
	"fmt"

	"github.com/chazu/brep/pkg/kernel"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("brep.graph")
}

// ErrInvalidGraph is returned by Evaluate for graphs that fail Validate.
var ErrInvalidGraph = errors.New("graph: invalid graph")

// Part is a solid produced by evaluating a graph.
type Part struct {
	Name  string
	Node  NodeID
	Solid kernel.Solid
}

// transformStack accumulates placements during graph traversal.
type transformStack []TransformData

func (ts *transformStack) push(td TransformData) { *ts = append(*ts, td) }

func (ts *transformStack) pop() {
	if n := len(*ts); n > 0 {
		*ts = (*ts)[:n-1]
	}
}

// place applies the placements on the stack to s, innermost first.
func (ts transformStack) place(k kernel.Kernel, s kernel.Solid) kernel.Solid {
	for i := len(ts) - 1; i >= 0; i-- {
		if r := ts[i].Rotation; r != nil && !r.IsZero() {
			s = k.Rotate(s, r.X, r.Y, r.Z)
		}
		if t := ts[i].Translation; t != nil && !t.IsZero() {
			s = k.Translate(s, t.X, t.Y, t.Z)
		}
	}
	return s
}

// Evaluate walks g from its roots and produces one part per primitive or
// Boolean node not consumed by an enclosing Boolean node. It never mutates
// the graph.
func Evaluate(g *Graph, k kernel.Kernel) ([]Part, error) {
	if g == nil {
		return nil, nil
	}
	if errs := Validate(g); HasErrors(errs) {
		for _, e := range errs {
			if e.Severity == SeverityError {
				return nil, fmt.Errorf("%w: %v", ErrInvalidGraph, e)
			}
		}
	}
	var parts []Part
	ts := &transformStack{}
	for _, rootID := range g.Roots {
		collected, err := walkNode(g, k, g.Get(rootID), ts)
		if err != nil {
			return nil, fmt.Errorf("evaluate: root %s: %w", rootID.Short(), err)
		}
		parts = append(parts, collected...)
	}
	tracer().Infof("evaluated %d nodes into %d parts", g.NodeCount(), len(parts))
	return parts, nil
}

func partName(n *Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}

func walkNode(g *Graph, k kernel.Kernel, n *Node, ts *transformStack) ([]Part, error) {
	switch n.Kind {
	case NodePrimitive:
		s, err := primitive(k, n)
		if err != nil {
			return nil, err
		}
		return []Part{{Name: partName(n), Node: n.ID, Solid: ts.place(k, s)}}, nil

	case NodeTransform:
		td, ok := n.Data.(TransformData)
		if !ok {
			return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
		}
		ts.push(td)
		defer ts.pop()
		return walkChildren(g, k, n, ts)

	case NodeGroup:
		return walkChildren(g, k, n, ts)

	case NodeBoolean:
		s, err := boolean(g, k, n, ts)
		if err != nil {
			return nil, err
		}
		return []Part{{Name: partName(n), Node: n.ID, Solid: s}}, nil

	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

func walkChildren(g *Graph, k kernel.Kernel, n *Node, ts *transformStack) ([]Part, error) {
	var parts []Part
	for _, child := range g.Children(n) {
		collected, err := walkNode(g, k, child, ts)
		if err != nil {
			return nil, err
		}
		parts = append(parts, collected...)
	}
	return parts, nil
}

func primitive(k kernel.Kernel, n *Node) (kernel.Solid, error) {
	switch d := n.Data.(type) {
	case BoxData:
		return k.Box(d.Dimensions.X, d.Dimensions.Y, d.Dimensions.Z), nil
	case CylinderData:
		seg := d.Segments
		if seg == 0 {
			seg = DefaultSegments
		}
		return k.Cylinder(d.Height, d.Radius, seg), nil
	case PrismData:
		s, err := k.Prism(d.Profile, d.Height)
		if err != nil {
			return nil, fmt.Errorf("prism node %s: %w", n.ID.Short(), err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("primitive node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}
}

// boolean evaluates each child to one operand, fusing the parts of a child
// that yields several, and folds the operands with the node's operation.
func boolean(g *Graph, k kernel.Kernel, n *Node, ts *transformStack) (kernel.Solid, error) {
	bd, ok := n.Data.(BooleanData)
	if !ok {
		return nil, fmt.Errorf("boolean node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	var acc kernel.Solid
	for i, child := range g.Children(n) {
		parts, err := walkNode(g, k, child, ts)
		if err != nil {
			return nil, err
		}
		if len(parts) == 0 {
			return nil, fmt.Errorf("boolean node %s: operand %d is empty", n.ID.Short(), i)
		}
		operand := parts[0].Solid
		for _, p := range parts[1:] {
			if operand, err = k.Union(operand, p.Solid); err != nil {
				return nil, fmt.Errorf("boolean node %s: operand %d: %w", n.ID.Short(), i, err)
			}
		}
		if acc == nil {
			acc = operand
			continue
		}
		switch bd.Op {
		case OpUnion:
			acc, err = k.Union(acc, operand)
		case OpDifference:
			acc, err = k.Difference(acc, operand)
		case OpIntersection:
			acc, err = k.Intersection(acc, operand)
		default:
			err = fmt.Errorf("unknown operation %v", bd.Op)
		}
		if err != nil {
			return nil, fmt.Errorf("boolean node %s: %s with operand %d: %w", n.ID.Short(), bd.Op, i, err)
		}
		tracer().P("node", n.ID.Short()).Debugf("%s with operand %d", bd.Op, i)
	}
	return acc, nil
}

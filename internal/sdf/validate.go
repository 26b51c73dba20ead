package sdf

import "fmt"

// TraversalStep is one link visit in parent-before-child order. Joint
// is the arena index of the joint that attaches the link to its parent,
// or -1 for a root link.
type TraversalStep struct {
	Link  int
	Joint int
}

// Validate checks the structural invariants both dialects share:
// mandatory names, joint endpoints that exist, at most one parent per
// link, and an acyclic joint graph. Geometry problems are not checked
// here; parsers degrade those individually.
func (m *Model) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: model has no name", ErrMalformedDocument)
	}
	for i := range m.Links {
		if m.Links[i].Name == "" {
			return fmt.Errorf("%w: model %q: link %d has no name", ErrMalformedDocument, m.Name, i)
		}
	}
	for i := range m.Joints {
		j := &m.Joints[i]
		if j.Name == "" {
			return fmt.Errorf("%w: model %q: joint %d has no name", ErrMalformedDocument, m.Name, i)
		}
		if m.LinkIndex(j.Parent) < 0 {
			return fmt.Errorf("%w: model %q: joint %q parent link %q not found",
				ErrMalformedDocument, m.Name, j.Name, j.Parent)
		}
		if m.LinkIndex(j.Child) < 0 {
			return fmt.Errorf("%w: model %q: joint %q child link %q not found",
				ErrMalformedDocument, m.Name, j.Name, j.Child)
		}
	}

	_, err := m.TraversalOrder()
	return err
}

// TraversalOrder computes the depth-first, parent-before-child visit
// order over the link arena. Links not attached by any joint are roots
// and are visited in arena order, so a jointless model degenerates to a
// flat list. A link with two parents or a joint cycle is rejected.
func (m *Model) TraversalOrder() ([]TraversalStep, error) {
	parentJoint := make([]int, len(m.Links))
	for i := range parentJoint {
		parentJoint[i] = -1
	}
	children := make([][]int, len(m.Links)) // joint indices by parent link

	for i := range m.Joints {
		j := &m.Joints[i]
		parent := m.LinkIndex(j.Parent)
		child := m.LinkIndex(j.Child)
		if parent < 0 || child < 0 {
			return nil, fmt.Errorf("%w: model %q: joint %q references unknown link",
				ErrMalformedDocument, m.Name, j.Name)
		}
		if parentJoint[child] >= 0 {
			return nil, fmt.Errorf("%w: model %q: link %q has multiple parent joints",
				ErrMalformedDocument, m.Name, m.Links[child].Name)
		}
		parentJoint[child] = i
		children[parent] = append(children[parent], i)
	}

	order := make([]TraversalStep, 0, len(m.Links))
	visited := make([]bool, len(m.Links))

	var visit func(link, joint int) error
	visit = func(link, joint int) error {
		if visited[link] {
			return fmt.Errorf("%w: model %q: link %q revisited",
				ErrCyclicJointGraph, m.Name, m.Links[link].Name)
		}
		visited[link] = true
		order = append(order, TraversalStep{Link: link, Joint: joint})
		for _, jointIdx := range children[link] {
			child := m.LinkIndex(m.Joints[jointIdx].Child)
			if err := visit(child, jointIdx); err != nil {
				return err
			}
		}
		return nil
	}

	for i := range m.Links {
		if parentJoint[i] < 0 {
			if err := visit(i, -1); err != nil {
				return nil, err
			}
		}
	}

	// every unvisited link sits on a cycle with no root to reach it from
	for i, seen := range visited {
		if !seen {
			return nil, fmt.Errorf("%w: model %q: link %q unreachable from any root",
				ErrCyclicJointGraph, m.Name, m.Links[i].Name)
		}
	}
	return order, nil
}

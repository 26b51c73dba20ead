package sdf

import (
	"errors"
	"testing"
)

func chainModel(name string, joints ...[2]string) *Model {
	m := &Model{Name: name}
	seen := map[string]bool{}
	addLink := func(n string) {
		if !seen[n] {
			seen[n] = true
			m.Links = append(m.Links, Link{Name: n})
		}
	}
	for i, j := range joints {
		addLink(j[0])
		addLink(j[1])
		m.Joints = append(m.Joints, Joint{
			Name:   "j" + string(rune('0'+i)),
			Parent: j[0],
			Child:  j[1],
		})
	}
	return m
}

func TestTraversalOrderParentFirst(t *testing.T) {
	m := chainModel("chain", [2]string{"a", "b"}, [2]string{"b", "c"})

	order, err := m.TraversalOrder()
	if err != nil {
		t.Fatalf("TraversalOrder: %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("got %d steps, want 3", len(order))
	}

	position := map[string]int{}
	for i, step := range order {
		position[m.Links[step.Link].Name] = i
	}
	if !(position["a"] < position["b"] && position["b"] < position["c"]) {
		t.Errorf("order violates parent-before-child: %v", position)
	}
	if order[0].Joint != -1 {
		t.Errorf("root step joint = %d, want -1", order[0].Joint)
	}
	if m.Joints[order[1].Joint].Child != "b" {
		t.Errorf("second step joint attaches %q, want b", m.Joints[order[1].Joint].Child)
	}
}

func TestTraversalOrderForest(t *testing.T) {
	// jointless model: every link is a root, visited in arena order
	m := &Model{Name: "flat", Links: []Link{{Name: "x"}, {Name: "y"}}}

	order, err := m.TraversalOrder()
	if err != nil {
		t.Fatalf("TraversalOrder: %v", err)
	}
	if len(order) != 2 || order[0].Link != 0 || order[1].Link != 1 {
		t.Errorf("forest order = %v", order)
	}
}

func TestTraversalOrderCycle(t *testing.T) {
	m := chainModel("loop", [2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"c", "a"})

	_, err := m.TraversalOrder()
	if !errors.Is(err, ErrCyclicJointGraph) {
		t.Fatalf("got %v, want ErrCyclicJointGraph", err)
	}
}

func TestTraversalOrderMultiParent(t *testing.T) {
	m := chainModel("diamond", [2]string{"a", "c"}, [2]string{"b", "c"})

	_, err := m.TraversalOrder()
	if !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("got %v, want ErrMalformedDocument", err)
	}
}

func TestValidateMissingNames(t *testing.T) {
	tests := []struct {
		name  string
		model *Model
	}{
		{"model", &Model{Links: []Link{{Name: "l"}}}},
		{"link", &Model{Name: "m", Links: []Link{{}}}},
		{"joint", &Model{
			Name:   "m",
			Links:  []Link{{Name: "a"}, {Name: "b"}},
			Joints: []Joint{{Parent: "a", Child: "b"}},
		}},
	}

	for _, tc := range tests {
		if err := tc.model.Validate(); !errors.Is(err, ErrMalformedDocument) {
			t.Errorf("%s without name: got %v, want ErrMalformedDocument", tc.name, err)
		}
	}
}

package tree

import (
	"errors"
	"testing"
)

func TestQueryBeforeBuildFails(t *testing.T) {
	tr, _, _, _ := buildDocTree(t)
	q := NewQueryIndex(tr)

	if _, err := q.NodesOfType("heading"); !errors.Is(err, ErrIndexNotBuilt) {
		t.Errorf("NodesOfType before Build = %v, want ErrIndexNotBuilt", err)
	}
}

func TestQueryByType(t *testing.T) {
	tr, heading, para, _ := buildDocTree(t)
	q := NewQueryIndex(tr)
	q.Build()

	headings, err := q.NodesOfType("heading")
	if err != nil {
		t.Fatalf("NodesOfType(heading) = %v", err)
	}
	if len(headings) != 1 || headings[0] != heading {
		t.Errorf("headings = %v, want [%v]", headings, heading)
	}

	paras, err := q.NodesOfType("paragraph")
	if err != nil {
		t.Fatalf("NodesOfType(paragraph) = %v", err)
	}
	if len(paras) != 1 || paras[0] != para {
		t.Errorf("paragraphs = %v, want [%v]", paras, para)
	}

	missing, err := q.NodesOfType("table")
	if err != nil {
		t.Fatalf("NodesOfType(table) = %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("tables = %v, want none", missing)
	}
}

func TestQueryIgnoresTombstones(t *testing.T) {
	tr, heading, _, _ := buildDocTree(t)
	tr.Remove(heading)

	q := NewQueryIndex(tr)
	q.Build()

	n, err := q.CountOfType("heading")
	if err != nil {
		t.Fatalf("CountOfType = %v", err)
	}
	if n != 0 {
		t.Errorf("CountOfType(heading) = %d, want 0", n)
	}
}

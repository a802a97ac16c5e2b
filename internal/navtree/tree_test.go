package navtree

import (
	"testing"

	"github.com/dgallion1/docsite/internal/catalog"
	"github.com/dgallion1/docsite/internal/frontmatter"
)

func order(v float64) *float64 { return &v }

func page(id, parent, title string, navOrder *float64) catalog.PageRecord {
	return catalog.PageRecord{
		ID:       id,
		File:     id + ".html",
		Title:    title,
		NavLabel: title,
		Parent:   parent,
		NavOrder: navOrder,
	}
}

func proposal(id, parent, number, status string) catalog.PageRecord {
	p := page(id, parent, "Proposal "+number, nil)
	p.Proposal = &frontmatter.ProposalMeta{Number: frontmatter.NormalizeNumber(number), Status: status}
	return p
}

func TestBuild_ParentChild(t *testing.T) {
	roots := Build([]catalog.PageRecord{
		page("a", "", "Intro", order(1)),
		page("b", "a", "Guide", order(1)),
	})
	if len(roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(roots))
	}
	a := roots[0].(*PageNode)
	if a.Page.ID != "a" {
		t.Fatalf("unexpected root %q", a.Page.ID)
	}
	if len(a.Children()) != 1 || a.Children()[0].(*PageNode).Page.ID != "b" {
		t.Fatalf("expected b under a, got %+v", a.Children())
	}
}

func TestBuild_OrphanParentBecomesRoot(t *testing.T) {
	roots := Build([]catalog.PageRecord{
		page("a", "missing", "Orphan", nil),
		page("b", "", "Root", nil),
	})
	if len(roots) != 2 {
		t.Fatalf("orphan must be promoted to root, got %d roots", len(roots))
	}
}

func TestBuild_SiblingOrdering(t *testing.T) {
	roots := Build([]catalog.PageRecord{
		page("z", "", "Zeta", nil),
		page("b", "", "Beta", order(2)),
		page("a", "", "Alpha", order(1)),
		page("m", "", "Mu", nil),
	})
	var got []string
	for _, n := range roots {
		got = append(got, n.(*PageNode).Page.ID)
	}
	want := []string{"a", "b", "m", "z"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestBuild_EqualNavOrderFallsBackToTitle(t *testing.T) {
	roots := Build([]catalog.PageRecord{
		page("b", "", "Bravo", order(1)),
		page("a", "", "Alpha", order(1)),
	})
	if roots[0].(*PageNode).Page.ID != "a" {
		t.Error("equal nav_order should fall back to title order")
	}
}

func TestBuild_ProposalContainerLast(t *testing.T) {
	roots := Build([]catalog.PageRecord{
		proposal("pp1", "", "1", "draft"),
		page("z", "", "Zeta", nil),
		page("a", "", "Alpha", nil),
	})
	if len(roots) != 3 {
		t.Fatalf("expected 3 roots, got %d", len(roots))
	}
	if _, ok := roots[2].(*ContainerNode); !ok {
		t.Fatalf("proposal container must sort after ordinary roots, got %T", roots[2])
	}
}

func TestBuild_StatusGroupOrdering(t *testing.T) {
	roots := Build([]catalog.PageRecord{
		proposal("p1", "", "1", "draft"),
		proposal("p2", "", "2", "accepted"),
		proposal("p3", "", "3", "rejected"),
	})
	container := roots[0].(*ContainerNode)
	groups := container.Children()
	if len(groups) != 3 {
		t.Fatalf("expected 3 status groups, got %d", len(groups))
	}
	want := []string{"accepted", "draft", "rejected"}
	for i, g := range groups {
		if g.(*StatusGroupNode).Status != want[i] {
			t.Fatalf("expected group order %v, got %q at %d", want, g.(*StatusGroupNode).Status, i)
		}
	}
}

func TestBuild_ProposalNumberOrdering(t *testing.T) {
	roots := Build([]catalog.PageRecord{
		proposal("p10", "", "10", "draft"),
		proposal("p2", "", "2", "draft"),
		proposal("p12b", "", "12b", "draft"),
		proposal("p12a", "", "12a", "draft"),
	})
	group := roots[0].(*ContainerNode).Children()[0].(*StatusGroupNode)
	var got []string
	for _, n := range group.Children() {
		got = append(got, n.(*PageNode).Page.ID)
	}
	want := []string{"p2", "p10", "p12a", "p12b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestBuild_ProposalKeepsParentLinks(t *testing.T) {
	roots := Build([]catalog.PageRecord{
		proposal("parent", "", "1", "accepted"),
		proposal("child", "parent", "2", "accepted"),
	})
	group := roots[0].(*ContainerNode).Children()[0].(*StatusGroupNode)
	if len(group.Children()) != 1 {
		t.Fatalf("expected one top proposal in the group, got %d", len(group.Children()))
	}
	top := group.Children()[0].(*PageNode)
	if len(top.Children()) != 1 || top.Children()[0].(*PageNode).Page.ID != "child" {
		t.Fatal("child proposal should nest under its parent proposal")
	}
}

func TestBuild_MixedPartitionParentIsOrphan(t *testing.T) {
	// A proposal pointing at an ordinary page cannot resolve inside the
	// proposal partition: it roots in its status group.
	roots := Build([]catalog.PageRecord{
		page("guide", "", "Guide", nil),
		proposal("p1", "guide", "1", "draft"),
	})
	container := roots[len(roots)-1].(*ContainerNode)
	group := container.Children()[0].(*StatusGroupNode)
	if len(group.Children()) != 1 {
		t.Fatal("proposal with out-of-partition parent should root in its status group")
	}
}

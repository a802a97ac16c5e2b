// Package navtree builds the sidebar navigation forest for one version
// from its flat page list, and tracks the expand/active state of the
// rendered tree.
package navtree

import (
	"sort"
	"strings"

	"github.com/dgallion1/docsite/internal/catalog"
	"github.com/dgallion1/docsite/internal/frontmatter"
)

// Node is one entry of the navigation forest. Exactly three
// implementations exist: *PageNode for real pages, and the synthetic
// *StatusGroupNode and *ContainerNode used for proposal grouping.
// Renderers type-switch over them.
type Node interface {
	ID() string
	Label() string
	Children() []Node
}

// PageNode wraps one PageRecord.
type PageNode struct {
	Page catalog.PageRecord
	kids []Node
}

func (n *PageNode) ID() string       { return n.Page.ID }
func (n *PageNode) Label() string    { return n.Page.NavLabel }
func (n *PageNode) Children() []Node { return n.kids }

// ContainerNode is the synthetic top-level container holding all
// proposal documents. It has no backing page and is never a navigation
// target.
type ContainerNode struct {
	id    string
	label string
	kids  []Node
}

func (n *ContainerNode) ID() string       { return n.id }
func (n *ContainerNode) Label() string    { return n.label }
func (n *ContainerNode) Children() []Node { return n.kids }

// StatusGroupNode groups the proposals sharing one status value.
type StatusGroupNode struct {
	id     string
	Status string
	kids   []Node
}

func (n *StatusGroupNode) ID() string       { return n.id }
func (n *StatusGroupNode) Label() string    { return strings.ToUpper(n.Status[:1]) + n.Status[1:] }
func (n *StatusGroupNode) Children() []Node { return n.kids }

const (
	containerID    = "proposals"
	containerLabel = "Proposals"
)

// statusPriority is the fixed render order of proposal status groups.
// Unknown statuses sort after all known ones, lexically.
var statusPriority = map[string]int{
	"accepted":  0,
	"draft":     1,
	"rejected":  2,
	"obsoleted": 3,
}

// Build reconstructs the navigation forest from a version's flat,
// non-obsoleted page list. Proposal-class records are split off into a
// synthetic container that sorts after all ordinary roots; everything
// else is linked by parent/id, with unresolvable parents promoted to
// roots rather than dropped.
func Build(pages []catalog.PageRecord) []Node {
	var ordinary, proposals []catalog.PageRecord
	for _, p := range pages {
		if p.Proposal != nil {
			proposals = append(proposals, p)
		} else {
			ordinary = append(ordinary, p)
		}
	}

	roots := link(ordinary)
	sortOrdinary(roots)

	if len(proposals) > 0 {
		roots = append(roots, buildProposalContainer(proposals))
	}
	return roots
}

// link connects records by parent/id within one partition and returns
// the roots. A record whose parent does not resolve becomes a root.
func link(records []catalog.PageRecord) []Node {
	nodes := make(map[string]*PageNode, len(records))
	order := make([]*PageNode, 0, len(records))
	for _, r := range records {
		n := &PageNode{Page: r}
		nodes[r.ID] = n
		order = append(order, n)
	}

	var roots []Node
	for _, n := range order {
		parent := n.Page.Parent
		if parent != "" && parent != n.Page.ID {
			if p, ok := nodes[parent]; ok {
				p.kids = append(p.kids, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}

// sortOrdinary orders siblings recursively: defined navOrder first
// (ascending), then case-sensitive title.
func sortOrdinary(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, aok := nodes[i].(*PageNode)
		b, bok := nodes[j].(*PageNode)
		if !aok || !bok {
			// Synthetic nodes sort after all pages.
			return aok
		}
		ao, bo := a.Page.NavOrder, b.Page.NavOrder
		switch {
		case ao != nil && bo == nil:
			return true
		case ao == nil && bo != nil:
			return false
		case ao != nil && bo != nil && *ao != *bo:
			return *ao < *bo
		}
		return a.Page.Title < b.Page.Title
	})
	for _, n := range nodes {
		if p, ok := n.(*PageNode); ok {
			sortOrdinary(p.kids)
		}
	}
}

// buildProposalContainer groups proposal records into one synthetic
// container subdivided by status. Parent links between proposals still
// apply inside the partition; a proposal roots at the group matching
// its own status.
func buildProposalContainer(proposals []catalog.PageRecord) Node {
	roots := link(proposals)

	groups := make(map[string]*StatusGroupNode)
	for _, n := range roots {
		p := n.(*PageNode)
		status := frontmatter.StatusDraft
		if p.Page.Proposal != nil {
			status = p.Page.Proposal.Status
		}
		g, ok := groups[status]
		if !ok {
			g = &StatusGroupNode{id: containerID + "-" + status, Status: status}
			groups[status] = g
		}
		g.kids = append(g.kids, p)
	}

	ordered := make([]Node, 0, len(groups))
	for _, g := range groups {
		sortProposals(g.kids)
		ordered = append(ordered, g)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a := ordered[i].(*StatusGroupNode)
		b := ordered[j].(*StatusGroupNode)
		ap, aok := statusPriority[a.Status]
		bp, bok := statusPriority[b.Status]
		switch {
		case aok && bok:
			return ap < bp
		case aok != bok:
			return aok
		}
		return a.Status < b.Status
	})

	return &ContainerNode{id: containerID, label: containerLabel, kids: ordered}
}

// sortProposals orders proposal siblings by numeric proposal number,
// with the full number string as tiebreak for variants like 12a/12b.
func sortProposals(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a := nodes[i].(*PageNode)
		b := nodes[j].(*PageNode)
		an, as := proposalKey(a.Page)
		bn, bs := proposalKey(b.Page)
		if an != bn {
			return an < bn
		}
		return as < bs
	})
	for _, n := range nodes {
		if p, ok := n.(*PageNode); ok {
			sortProposals(p.kids)
		}
	}
}

func proposalKey(p catalog.PageRecord) (int, string) {
	if p.Proposal == nil {
		return 0, p.ID
	}
	return frontmatter.NumberKey(p.Proposal.Number)
}

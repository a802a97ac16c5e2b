package navtree

// State tracks the expand/collapse and active-highlight state of a
// rendered navigation forest. It is owned by the single UI session and
// rebuilt whenever a version's sidebar is repopulated.
type State struct {
	roots    []Node
	expanded map[string]bool
	activeID string
}

func NewState(roots []Node) *State {
	return &State{roots: roots, expanded: make(map[string]bool)}
}

func (s *State) Roots() []Node { return s.roots }

// ActiveID returns the id of the currently active node, or "".
func (s *State) ActiveID() string { return s.activeID }

// Expanded reports whether the container with the given id is open.
func (s *State) Expanded(id string) bool { return s.expanded[id] }

// Toggle flips a single container's expand state. It never cascades.
func (s *State) Toggle(id string) {
	s.expanded[id] = !s.expanded[id]
}

// SetActive marks the node whose page file matches as active and
// expands every ancestor up to the root, synthetic containers
// included. Other containers keep their prior state. A file with no
// matching node clears the active mark and changes nothing else.
func (s *State) SetActive(file string) {
	s.activeID = ""
	path := findPath(s.roots, file)
	if path == nil {
		return
	}
	s.activeID = path[len(path)-1].ID()
	for _, ancestor := range path[:len(path)-1] {
		s.expanded[ancestor.ID()] = true
	}
}

// findPath returns the root-to-node path of the page node whose file
// matches, or nil.
func findPath(nodes []Node, file string) []Node {
	for _, n := range nodes {
		if p, ok := n.(*PageNode); ok && p.Page.File == file {
			return []Node{n}
		}
		if sub := findPath(n.Children(), file); sub != nil {
			return append([]Node{n}, sub...)
		}
	}
	return nil
}

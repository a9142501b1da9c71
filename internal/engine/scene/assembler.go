package scene

// DefaultRootAliases are the parent names that refer to the model root.
var DefaultRootAliases = []string{"root", "scene_root"}

// IssueKind classifies a recoverable hierarchy problem.
type IssueKind int

const (
	IssueDanglingParent IssueKind = iota
	IssueDuplicateName
)

// String returns the issue kind name.
func (k IssueKind) String() string {
	if k == IssueDuplicateName {
		return "duplicate_name"
	}
	return "dangling_parent"
}

// Issue records a node the assembler could not place as named.
type Issue struct {
	Kind   IssueKind
	Node   string
	Parent string
}

// Assembler links nodes into a tree in file order. Parents must precede
// their children; anything else becomes a detached top-level node.
type Assembler struct {
	root    *Node
	aliases map[string]struct{}

	byName map[string]*Node
	nodes  []*Node
	top    []*Node
	issues []Issue
}

// NewAssembler creates an assembler. root may be nil, in which case
// root-parented nodes become top-level nodes. Empty aliases selects
// DefaultRootAliases.
func NewAssembler(root *Node, aliases []string) *Assembler {
	if len(aliases) == 0 {
		aliases = DefaultRootAliases
	}
	a := &Assembler{
		root:    root,
		aliases: make(map[string]struct{}, len(aliases)),
		byName:  make(map[string]*Node),
	}
	for _, name := range aliases {
		a.aliases[name] = struct{}{}
	}
	return a
}

// IsRootAlias reports whether name refers to the model root.
func (a *Assembler) IsRootAlias(name string) bool {
	_, ok := a.aliases[name]
	return ok
}

// Skip reports whether a record named name should not produce a node.
// Root records are replaced by the supplied attachment root.
func (a *Assembler) Skip(name string) bool {
	return a.root != nil && a.IsRootAlias(name)
}

// ResolveParent finds the node a record naming parent should attach to.
// It returns nil with ok true for a top-level placement and ok false when
// parent names no assembled node.
func (a *Assembler) ResolveParent(parent string) (p *Node, ok bool) {
	if parent == "" || a.IsRootAlias(parent) {
		if a.root != nil {
			return a.root, true
		}
		if parent != "" {
			if p, found := a.byName[parent]; found {
				return p, true
			}
		}
		return nil, true
	}
	p, ok = a.byName[parent]
	return p, ok
}

// Attach places n according to n.ParentName and registers it by name.
func (a *Assembler) Attach(n *Node) {
	parent, ok := a.ResolveParent(n.ParentName)
	switch {
	case parent != nil:
		parent.AddChild(n)
	case ok:
		a.top = append(a.top, n)
	default:
		n.Detached = true
		a.top = append(a.top, n)
		a.issues = append(a.issues, Issue{Kind: IssueDanglingParent, Node: n.Name, Parent: n.ParentName})
	}

	if _, dup := a.byName[n.Name]; dup {
		a.issues = append(a.issues, Issue{Kind: IssueDuplicateName, Node: n.Name, Parent: n.ParentName})
	}
	a.byName[n.Name] = n
	a.nodes = append(a.nodes, n)
}

// Lookup returns the most recently attached node named name.
func (a *Assembler) Lookup(name string) (*Node, bool) {
	n, ok := a.byName[name]
	return n, ok
}

// Root returns the attachment root, or nil.
func (a *Assembler) Root() *Node {
	return a.root
}

// Nodes returns every attached node in file order.
func (a *Assembler) Nodes() []*Node {
	return a.nodes
}

// TopLevel returns nodes that have no parent in the assembled tree.
func (a *Assembler) TopLevel() []*Node {
	return a.top
}

// Issues returns the recoverable problems seen so far.
func (a *Assembler) Issues() []Issue {
	return a.issues
}

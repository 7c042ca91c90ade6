package parsers

// NodeKind is the closed set of PHP syntax node kinds the analysis matches on.
// Grammar types without a dedicated kind map to KindOther.
type NodeKind uint8

const (
	KindOther NodeKind = iota
	KindProgram
	KindClass
	KindMethod
	KindVisibility
	KindName
	KindVariable
	KindMemberCall
	KindNullsafeMemberCall
	KindScopedCall
	KindFunctionCall
	KindObjectCreation
	KindMemberAccess
	KindNullsafeMemberAccess
	KindArguments
	KindArgument
	KindArray
	KindArrayElement
	KindString
	KindEncapsedString
	KindStringContent
	KindInteger
	KindFloat
	KindParenthesized
	KindAssignment
	KindDoubleArrow
	KindComment
	KindError
)

var kindNames = [...]string{
	KindOther:                "other",
	KindProgram:              "program",
	KindClass:                "class",
	KindMethod:               "method",
	KindVisibility:           "visibility",
	KindName:                 "name",
	KindVariable:             "variable",
	KindMemberCall:           "member_call",
	KindNullsafeMemberCall:   "nullsafe_member_call",
	KindScopedCall:           "scoped_call",
	KindFunctionCall:         "function_call",
	KindObjectCreation:       "object_creation",
	KindMemberAccess:         "member_access",
	KindNullsafeMemberAccess: "nullsafe_member_access",
	KindArguments:            "arguments",
	KindArgument:             "argument",
	KindArray:                "array",
	KindArrayElement:         "array_element",
	KindString:               "string",
	KindEncapsedString:       "encapsed_string",
	KindStringContent:        "string_content",
	KindInteger:              "integer",
	KindFloat:                "float",
	KindParenthesized:        "parenthesized",
	KindAssignment:           "assignment",
	KindDoubleArrow:          "=>",
	KindComment:              "comment",
	KindError:                "error",
}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// IsCall reports whether nodes of this kind invoke something.
func (k NodeKind) IsCall() bool {
	switch k {
	case KindMemberCall, KindNullsafeMemberCall, KindScopedCall, KindFunctionCall, KindObjectCreation:
		return true
	}
	return false
}

// grammarKinds maps tree-sitter-php node types onto NodeKind.
var grammarKinds = map[string]NodeKind{
	"program":                           KindProgram,
	"class_declaration":                 KindClass,
	"method_declaration":                KindMethod,
	"visibility_modifier":               KindVisibility,
	"name":                              KindName,
	"variable_name":                     KindVariable,
	"member_call_expression":            KindMemberCall,
	"nullsafe_member_call_expression":   KindNullsafeMemberCall,
	"scoped_call_expression":            KindScopedCall,
	"function_call_expression":          KindFunctionCall,
	"object_creation_expression":        KindObjectCreation,
	"member_access_expression":          KindMemberAccess,
	"nullsafe_member_access_expression": KindNullsafeMemberAccess,
	"arguments":                         KindArguments,
	"argument":                          KindArgument,
	"array_creation_expression":         KindArray,
	"array_element_initializer":         KindArrayElement,
	"string":                            KindString,
	"encapsed_string":                   KindEncapsedString,
	"string_content":                    KindStringContent,
	"string_value":                      KindStringContent,
	"integer":                           KindInteger,
	"float":                             KindFloat,
	"parenthesized_expression":          KindParenthesized,
	"assignment_expression":             KindAssignment,
	"=>":                                KindDoubleArrow,
	"comment":                           KindComment,
	"ERROR":                             KindError,
}

// KindOf returns the NodeKind for a tree-sitter-php node type.
func KindOf(grammarType string) NodeKind {
	return grammarKinds[grammarType]
}

// NodeID indexes a node in its Tree's arena. NoNode marks absence.
type NodeID int32

const NoNode NodeID = -1

// Node is one syntax node. Start and End are character offsets into the
// original source; byte offsets are kept for slicing.
type Node struct {
	Kind      NodeKind
	Type      string
	Field     string
	Named     bool
	Start     int
	End       int
	StartByte int
	EndByte   int
	Parent    NodeID
	children  []NodeID
}

// Tree is an arena of nodes produced from one parse. It owns a copy of the
// source and has no ties to the underlying parser once built.
type Tree struct {
	Source []byte
	nodes  []Node
}

// Root returns the program node, or NoNode for an empty tree.
func (t *Tree) Root() NodeID {
	if len(t.nodes) == 0 {
		return NoNode
	}
	return 0
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Kind returns the kind of id, or KindOther for NoNode.
func (t *Tree) Kind(id NodeID) NodeKind {
	if id == NoNode {
		return KindOther
	}
	return t.nodes[id].Kind
}

// Start returns the character offset where id begins.
func (t *Tree) Start(id NodeID) int {
	return t.nodes[id].Start
}

// Text returns the source text covered by id.
func (t *Tree) Text(id NodeID) string {
	if id == NoNode {
		return ""
	}
	n := &t.nodes[id]
	return string(t.Source[n.StartByte:n.EndByte])
}

// Children returns every child of id, anonymous tokens included.
func (t *Tree) Children(id NodeID) []NodeID {
	return t.nodes[id].children
}

// NamedChildren returns the named children of id, skipping comments.
func (t *Tree) NamedChildren(id NodeID) []NodeID {
	var out []NodeID
	for _, c := range t.nodes[id].children {
		n := &t.nodes[c]
		if n.Named && n.Kind != KindComment {
			out = append(out, c)
		}
	}
	return out
}

// FieldChild returns the first child of id attached under the given
// grammar field name.
func (t *Tree) FieldChild(id NodeID, field string) NodeID {
	for _, c := range t.nodes[id].children {
		if t.nodes[c].Field == field {
			return c
		}
	}
	return NoNode
}

// FirstChildOfKind returns the first direct child of id with kind k.
func (t *Tree) FirstChildOfKind(id NodeID, k NodeKind) NodeID {
	for _, c := range t.nodes[id].children {
		if t.nodes[c].Kind == k {
			return c
		}
	}
	return NoNode
}

// Contains reports whether the character offset lies inside id.
func (t *Tree) Contains(id NodeID, offset int) bool {
	n := &t.nodes[id]
	return offset >= n.Start && offset < n.End
}

// Walk visits id and its descendants in preorder using an explicit stack.
// Returning false from visit skips the children of that node.
func (t *Tree) Walk(id NodeID, visit func(NodeID) bool) {
	if id == NoNode {
		return
	}
	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(cur) {
			continue
		}
		children := t.nodes[cur].children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

// Find returns every node of kind k under id, in source order.
func (t *Tree) Find(id NodeID, k NodeKind) []NodeID {
	var out []NodeID
	t.Walk(id, func(n NodeID) bool {
		if t.nodes[n].Kind == k {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Enclosing returns the nearest ancestor of id (or id itself) with kind k.
func (t *Tree) Enclosing(id NodeID, k NodeKind) NodeID {
	for cur := id; cur != NoNode; cur = t.nodes[cur].Parent {
		if t.nodes[cur].Kind == k {
			return cur
		}
	}
	return NoNode
}

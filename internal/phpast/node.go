// Package phpast defines the generic labeled syntax tree produced by the
// parser and consumed by the reducer. Nodes carry a kind discriminator, a
// flags bitmask and an ordered list of named child slots; the reducer only
// reads them, never mutates.
package phpast

// Kind discriminates node categories.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindClass        // class, interface, trait or enum declaration
	KindPropGroup    // one property declaration statement (shared modifiers)
	KindPropList     // the elements of a property group
	KindPropElem     // a single declared property
	KindMethod
	KindParamList
	KindParam
	KindName // a resolved name reference
	KindNameList
	KindStmtList
	KindPrimitiveType
	KindNullableType
	KindUnionType
	KindIntersectionType
)

// String returns a short label for the kind.
func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindPropGroup:
		return "propgroup"
	case KindPropList:
		return "proplist"
	case KindPropElem:
		return "propelem"
	case KindMethod:
		return "method"
	case KindParamList:
		return "paramlist"
	case KindParam:
		return "param"
	case KindName:
		return "name"
	case KindNameList:
		return "namelist"
	case KindStmtList:
		return "stmtlist"
	case KindPrimitiveType:
		return "primitive"
	case KindNullableType:
		return "nullable"
	case KindUnionType:
		return "union"
	case KindIntersectionType:
		return "intersection"
	default:
		return "unknown"
	}
}

// Flags is the modifier / primitive-type bitmask carried by a node.
type Flags uint32

const (
	ModPublic Flags = 1 << iota
	ModProtected
	ModPrivate
	ModStatic
	ModAbstract
	ModFinal

	TypeVoid
	TypeNull
	TypeFalse
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeArray
	TypeObject
	TypeCallable
	TypeIterable
	TypeMixed
)

// Visibility of a class member.
type Visibility string

const (
	Public    Visibility = "public"
	Protected Visibility = "protected"
	Private   Visibility = "private"
)

// Modifiers is the decoded form of a member's modifier bits.
type Modifiers struct {
	Visibility Visibility
	Abstract   bool
	Static     bool
	Final      bool
}

// Modifiers decodes the modifier bits once. Visibility is public when the
// public bit is set, protected when the protected bit is set, and private
// otherwise. Producers encode implicit PHP visibility explicitly, so the
// private fallback only fires for trees that carry no visibility bits at
// all.
func (f Flags) Modifiers() Modifiers {
	m := Modifiers{Visibility: Private}
	switch {
	case f&ModPublic != 0:
		m.Visibility = Public
	case f&ModProtected != 0:
		m.Visibility = Protected
	}
	m.Abstract = f&ModAbstract != 0
	m.Static = f&ModStatic != 0
	m.Final = f&ModFinal != 0
	return m
}

// slot is one named child. Exactly one of node/text is meaningful.
type slot struct {
	name string
	node *Node
	text string
	lit  bool // true when the slot holds a string literal, not a node
}

// Node is one vertex of the generic syntax tree.
type Node struct {
	Kind  Kind
	Flags Flags
	slots []slot
}

// New creates a node with no children.
func New(kind Kind, flags Flags) *Node {
	return &Node{Kind: kind, Flags: flags}
}

// AppendChild appends a node-valued slot. Nil children are dropped so that
// producers can append optional slots unconditionally. List nodes use the
// empty slot name. Returns the receiver for chaining.
func (n *Node) AppendChild(name string, child *Node) *Node {
	if child == nil {
		return n
	}
	n.slots = append(n.slots, slot{name: name, node: child})
	return n
}

// AppendText appends a string-literal slot.
func (n *Node) AppendText(name, text string) *Node {
	n.slots = append(n.slots, slot{name: name, text: text, lit: true})
	return n
}

// Child returns the first node-valued slot with the given name, or nil.
// Safe on a nil receiver.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, s := range n.slots {
		if !s.lit && s.name == name {
			return s.node
		}
	}
	return nil
}

// Text returns the first string-literal slot with the given name.
// Safe on a nil receiver.
func (n *Node) Text(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, s := range n.slots {
		if s.lit && s.name == name {
			return s.text, true
		}
	}
	return "", false
}

// ChildNodes returns all node-valued slots in append order. Safe on a nil
// receiver (returns nil). The returned slice must not be mutated.
func (n *Node) ChildNodes() []*Node {
	if n == nil {
		return nil
	}
	kids := make([]*Node, 0, len(n.slots))
	for _, s := range n.slots {
		if !s.lit {
			kids = append(kids, s.node)
		}
	}
	return kids
}

// NumChildNodes counts node-valued slots without allocating.
func (n *Node) NumChildNodes() int {
	if n == nil {
		return 0
	}
	count := 0
	for _, s := range n.slots {
		if !s.lit {
			count++
		}
	}
	return count
}

// TypeValue is a type expression in one of its accepted encodings: a bare
// primitive flag (legacy), an already-resolved name (legacy), or a
// structured node. The set is closed; anything else normalizes to
// "unknown".
type TypeValue interface {
	typeValue()
}

// FlagType is the legacy whole-type-as-flag encoding.
type FlagType Flags

// NameType is the legacy already-resolved type name encoding.
type NameType string

func (FlagType) typeValue() {}
func (NameType) typeValue() {}
func (*Node) typeValue()    {}

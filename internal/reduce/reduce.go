// Package reduce turns a generic syntax tree into a compact structural
// summary of its first class-like declaration. The reducer is total: missing
// or malformed sub-structure degrades to sentinels and empty collections,
// never to an error. A best-effort partial summary beats a hard failure for
// the machine consumers downstream.
package reduce

import (
	"fmt"

	"github.com/xonecas/classmap/internal/phpast"
)

// FilterMode selects which members a summary emits.
type FilterMode int

const (
	// All emits every member regardless of visibility or abstractness.
	All FilterMode = iota
	// PublicOnly emits only public, non-abstract members.
	PublicOnly
)

// String returns the textual form used by the CLI, config and HTTP layers.
func (m FilterMode) String() string {
	if m == PublicOnly {
		return "public"
	}
	return "all"
}

// ParseFilterMode parses the textual filter form. The empty string maps to
// All so callers can pass through an unset flag.
func ParseFilterMode(s string) (FilterMode, error) {
	switch s {
	case "", "all":
		return All, nil
	case "public", "public_only":
		return PublicOnly, nil
	default:
		return All, fmt.Errorf("unknown filter mode %q (want \"all\" or \"public\")", s)
	}
}

// UnknownClassName is the sentinel used when a declaration has no name slot.
const UnknownClassName = "UnknownClass"

// Summary is the structural summary of one class-like declaration.
// Member order is the pre-order traversal order of the declaration subtree.
type Summary struct {
	Name       string          `json:"name"`
	Interfaces []string        `json:"interfaces"`
	Properties []PropertyEntry `json:"properties"`
	Methods    []MethodEntry   `json:"methods"`
}

// PropertyEntry is one declared property.
type PropertyEntry struct {
	Name       string            `json:"name"`
	Visibility phpast.Visibility `json:"visibility"`
}

// MethodEntry is one declared method.
type MethodEntry struct {
	Name           string            `json:"name"`
	Visibility     phpast.Visibility `json:"visibility"`
	ParameterCount int               `json:"parameter_count"`
	ReturnType     string            `json:"return_type"`
}

// FindFirstDeclaration walks root pre-order, visiting child slots in their
// defined order, and returns the first class-like declaration node. Returns
// nil when the tree holds none, including when root itself is nil.
func FindFirstDeclaration(root *phpast.Node) *phpast.Node {
	if root == nil {
		return nil
	}
	if root.Kind == phpast.KindClass {
		return root
	}
	for _, child := range root.ChildNodes() {
		if decl := FindFirstDeclaration(child); decl != nil {
			return decl
		}
	}
	return nil
}

// Summarize reduces a declaration node to its summary under the given
// filter. Total over any well-formed-or-malformed tree; calling it twice on
// the same tree yields identical output.
func Summarize(decl *phpast.Node, filter FilterMode) *Summary {
	s := &Summary{
		Name:       UnknownClassName,
		Interfaces: []string{},
		Properties: []PropertyEntry{},
		Methods:    []MethodEntry{},
	}
	if decl == nil {
		return s
	}
	if name, ok := decl.Text("name"); ok {
		s.Name = name
	}
	s.Interfaces = append(s.Interfaces, interfaceNames(decl.Child("implements"))...)
	collectMembers(decl, filter, s)
	return s
}

// interfaceNames reads the name slot of each child of an implements list.
// Malformed entries are skipped silently.
func interfaceNames(list *phpast.Node) []string {
	var names []string
	for _, entry := range list.ChildNodes() {
		if name, ok := entry.Text("name"); ok {
			names = append(names, name)
		}
	}
	return names
}

// emit reports whether a member with the given modifiers passes the filter.
func emit(filter FilterMode, mods phpast.Modifiers) bool {
	if filter == All {
		return true
	}
	return mods.Visibility == phpast.Public && !mods.Abstract
}

// collectMembers walks the declaration subtree pre-order and appends every
// property group and method that passes the filter.
func collectMembers(n *phpast.Node, filter FilterMode, s *Summary) {
	switch n.Kind {
	case phpast.KindPropGroup:
		mods := n.Flags.Modifiers()
		if emit(filter, mods) {
			for _, prop := range n.Child("props").ChildNodes() {
				if name, ok := prop.Text("name"); ok {
					s.Properties = append(s.Properties, PropertyEntry{
						Name:       name,
						Visibility: mods.Visibility,
					})
				}
			}
		}
	case phpast.KindMethod:
		mods := n.Flags.Modifiers()
		if emit(filter, mods) {
			name, ok := n.Text("name")
			if !ok {
				name = "unknown"
			}
			entry := MethodEntry{
				Name:           name,
				Visibility:     mods.Visibility,
				ParameterCount: n.Child("params").NumChildNodes(),
				ReturnType:     "untyped",
			}
			if rt := n.Child("returnType"); rt != nil {
				entry.ReturnType = StringifyType(rt)
			}
			s.Methods = append(s.Methods, entry)
		}
	}
	for _, child := range n.ChildNodes() {
		collectMembers(child, filter, s)
	}
}

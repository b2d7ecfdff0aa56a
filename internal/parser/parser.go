// Package parser produces generic syntax trees from PHP source using
// tree-sitter. It is the only package that touches the tree-sitter CST; the
// rest of the system sees phpast nodes.
package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	"github.com/xonecas/classmap/internal/phpast"
)

// Supported returns true if the file extension is parseable PHP.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".php", ".phtml":
		return true
	default:
		return false
	}
}

// ParseFile reads and parses a file into a generic syntax tree.
func ParseFile(ctx context.Context, path string) (*phpast.Node, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(ctx, src)
}

// Parse parses PHP source bytes into a generic syntax tree. The tree-sitter
// CST is released before returning; the phpast tree owns no parser state.
func Parse(ctx context.Context, src []byte) (*phpast.Node, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(php.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse php: %w", err)
	}
	defer tree.Close()

	return convertNode(tree.RootNode(), src), nil
}

// convertNode maps one CST node to a phpast node. Nodes the reducer does not
// interpret become generic containers; generic leaves are pruned.
func convertNode(n *sitter.Node, src []byte) *phpast.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
		return convertClass(n, src)
	case "property_declaration":
		return convertPropGroup(n, src)
	case "method_declaration":
		return convertMethod(n, src)
	default:
		node := phpast.New(phpast.KindUnknown, 0)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			node.AppendChild("", convertNode(n.NamedChild(i), src))
		}
		if node.NumChildNodes() == 0 {
			return nil
		}
		return node
	}
}

// convertClass maps a class-like declaration: name, implemented interfaces
// and the member statement list.
func convertClass(n *sitter.Node, src []byte) *phpast.Node {
	cls := phpast.New(phpast.KindClass, modifierFlags(n, src))

	if name := n.ChildByFieldName("name"); name != nil {
		cls.AppendText("name", name.Content(src))
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "class_interface_clause" {
			continue
		}
		list := phpast.New(phpast.KindNameList, 0)
		for j := 0; j < int(child.NamedChildCount()); j++ {
			entry := child.NamedChild(j)
			switch entry.Type() {
			case "name", "qualified_name":
				list.AppendChild("", phpast.New(phpast.KindName, 0).
					AppendText("name", entry.Content(src)))
			}
		}
		cls.AppendChild("implements", list)
	}

	if body := n.ChildByFieldName("body"); body != nil {
		stmts := phpast.New(phpast.KindStmtList, 0)
		for i := 0; i < int(body.NamedChildCount()); i++ {
			stmts.AppendChild("", convertNode(body.NamedChild(i), src))
		}
		cls.AppendChild("stmts", stmts)
	}
	return cls
}

// convertPropGroup maps a property declaration statement. All elements of
// the statement share one modifier set, so they form a visibility group.
func convertPropGroup(n *sitter.Node, src []byte) *phpast.Node {
	group := phpast.New(phpast.KindPropGroup, modifierFlags(n, src))

	if typeNode := n.ChildByFieldName("type"); typeNode != nil {
		group.AppendChild("type", convertType(typeNode, src))
	}

	props := phpast.New(phpast.KindPropList, 0)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "property_element" {
			continue
		}
		elem := phpast.New(phpast.KindPropElem, 0)
		if name := variableName(child, src); name != "" {
			elem.AppendText("name", name)
		}
		props.AppendChild("", elem)
	}
	group.AppendChild("props", props)
	return group
}

// convertMethod maps a method declaration: name, parameter list, declared
// return type, and a generic body for nested declarations.
func convertMethod(n *sitter.Node, src []byte) *phpast.Node {
	method := phpast.New(phpast.KindMethod, modifierFlags(n, src))

	if name := n.ChildByFieldName("name"); name != nil {
		method.AppendText("name", name.Content(src))
	}

	params := phpast.New(phpast.KindParamList, 0)
	if list := n.ChildByFieldName("parameters"); list != nil {
		for i := 0; i < int(list.NamedChildCount()); i++ {
			child := list.NamedChild(i)
			switch child.Type() {
			case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
				param := phpast.New(phpast.KindParam, 0)
				if name := variableName(child, src); name != "" {
					param.AppendText("name", name)
				}
				if typeNode := child.ChildByFieldName("type"); typeNode != nil {
					param.AppendChild("type", convertType(typeNode, src))
				}
				params.AppendChild("", param)
			}
		}
	}
	method.AppendChild("params", params)

	if ret := n.ChildByFieldName("return_type"); ret != nil {
		method.AppendChild("returnType", convertType(ret, src))
	}

	if body := n.ChildByFieldName("body"); body != nil {
		method.AppendChild("stmts", convertNode(body, src))
	}
	return method
}

// convertType maps a type expression to its phpast form.
func convertType(n *sitter.Node, src []byte) *phpast.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "optional_type":
		inner := phpast.New(phpast.KindNullableType, 0)
		if kid := n.NamedChild(0); kid != nil {
			inner.AppendChild("type", convertType(kid, src))
		}
		return inner
	case "union_type":
		return convertTypeList(n, src, phpast.KindUnionType)
	case "intersection_type":
		return convertTypeList(n, src, phpast.KindIntersectionType)
	case "primitive_type", "bottom_type":
		return phpast.New(phpast.KindPrimitiveType, primitiveFlag(n.Content(src)))
	case "named_type", "name", "qualified_name":
		return phpast.New(phpast.KindName, 0).AppendText("name", n.Content(src))
	default:
		return phpast.New(phpast.KindUnknown, 0)
	}
}

func convertTypeList(n *sitter.Node, src []byte, kind phpast.Kind) *phpast.Node {
	list := phpast.New(kind, 0)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		list.AppendChild("", convertType(n.NamedChild(i), src))
	}
	return list
}

// primitiveFlag maps a primitive type token to its flag bit. Tokens outside
// the canonical set (never, true, static, ...) carry no flag and normalize
// to "unknown".
func primitiveFlag(text string) phpast.Flags {
	switch strings.ToLower(text) {
	case "void":
		return phpast.TypeVoid
	case "null":
		return phpast.TypeNull
	case "false":
		return phpast.TypeFalse
	case "bool":
		return phpast.TypeBool
	case "int":
		return phpast.TypeInt
	case "float":
		return phpast.TypeFloat
	case "string":
		return phpast.TypeString
	case "array":
		return phpast.TypeArray
	case "object":
		return phpast.TypeObject
	case "callable":
		return phpast.TypeCallable
	case "iterable":
		return phpast.TypeIterable
	case "mixed":
		return phpast.TypeMixed
	default:
		return 0
	}
}

// modifierFlags folds a declaration's modifier children into the bitmask.
// PHP members default to public when no visibility modifier is present;
// legacy "var" properties are public as well.
func modifierFlags(n *sitter.Node, src []byte) phpast.Flags {
	var flags phpast.Flags
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "visibility_modifier":
			switch child.Content(src) {
			case "public":
				flags |= phpast.ModPublic
			case "protected":
				flags |= phpast.ModProtected
			case "private":
				flags |= phpast.ModPrivate
			}
		case "var_modifier":
			flags |= phpast.ModPublic
		case "static_modifier":
			flags |= phpast.ModStatic
		case "abstract_modifier":
			flags |= phpast.ModAbstract
		case "final_modifier":
			flags |= phpast.ModFinal
		}
	}
	switch n.Type() {
	case "property_declaration", "method_declaration":
		if flags&(phpast.ModPublic|phpast.ModProtected|phpast.ModPrivate) == 0 {
			flags |= phpast.ModPublic
		}
	}
	return flags
}

// variableName finds the first variable_name beneath n and returns its bare
// name without the leading dollar sign.
func variableName(n *sitter.Node, src []byte) string {
	if n.Type() == "variable_name" {
		return strings.TrimPrefix(n.Content(src), "$")
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if name := variableName(n.NamedChild(i), src); name != "" {
			return name
		}
	}
	return ""
}

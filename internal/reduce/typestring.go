package reduce

import (
	"strings"

	"github.com/xonecas/classmap/internal/phpast"
)

// maxTypeDepth caps recursion through nullable/union/intersection wrappers.
// Type expressions form a tree in any syntactically valid input, so the cap
// only matters for adversarial cyclic graphs: beyond it we return "unknown"
// instead of overflowing the stack.
const maxTypeDepth = 64

// StringifyType normalizes a type expression into canonical textual form,
// e.g. "?int", "int|string", "Foo&Bar". It is a pure, total function: any
// unknown or malformed input maps to "unknown", never to an error.
func StringifyType(v phpast.TypeValue) string {
	return stringifyType(v, 0)
}

func stringifyType(v phpast.TypeValue, depth int) string {
	if depth > maxTypeDepth {
		return "unknown"
	}
	switch t := v.(type) {
	case phpast.FlagType:
		return primitiveName(phpast.Flags(t))
	case phpast.NameType:
		return string(t)
	case *phpast.Node:
		return stringifyNode(t, depth)
	default:
		return "unknown"
	}
}

func stringifyNode(n *phpast.Node, depth int) string {
	if n == nil || depth > maxTypeDepth {
		return "unknown"
	}
	switch n.Kind {
	case phpast.KindPrimitiveType:
		return primitiveName(n.Flags)
	case phpast.KindName:
		if name, ok := n.Text("name"); ok {
			return name
		}
		return "unknown"
	case phpast.KindNullableType:
		return "?" + stringifyNode(n.Child("type"), depth+1)
	case phpast.KindUnionType:
		return joinTypes(n, "|", depth)
	case phpast.KindIntersectionType:
		return joinTypes(n, "&", depth)
	default:
		return "unknown"
	}
}

func joinTypes(n *phpast.Node, sep string, depth int) string {
	kids := n.ChildNodes()
	if len(kids) == 0 {
		return "unknown"
	}
	parts := make([]string, len(kids))
	for i, kid := range kids {
		parts[i] = stringifyNode(kid, depth+1)
	}
	return strings.Join(parts, sep)
}

// primitiveName maps a primitive-type flag to its canonical name. Unmapped
// flag values return "unknown"; there is no error path.
func primitiveName(f phpast.Flags) string {
	switch f {
	case phpast.TypeVoid:
		return "void"
	case phpast.TypeNull:
		return "null"
	case phpast.TypeFalse:
		return "false"
	case phpast.TypeBool:
		return "bool"
	case phpast.TypeInt:
		return "int"
	case phpast.TypeFloat:
		return "float"
	case phpast.TypeString:
		return "string"
	case phpast.TypeArray:
		return "array"
	case phpast.TypeObject:
		return "object"
	case phpast.TypeCallable:
		return "callable"
	case phpast.TypeIterable:
		return "iterable"
	case phpast.TypeMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

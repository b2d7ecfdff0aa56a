// Package outline renders a batch report as a compact text outline for
// direct prompt injection.
package outline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xonecas/classmap/internal/reduce"
	"github.com/xonecas/classmap/internal/summarize"
)

// MaxBytes caps the outline to avoid consuming too much of an LLM context
// window. ~16KB is roughly 4-5K tokens.
const MaxBytes = 16 * 1024

// Format produces a compact per-file outline of every summarized class.
// Files without a class-like declaration are omitted; per-file errors are
// reported inline so a partial batch still renders. Output is deterministic
// (sorted paths) and capped at MaxBytes.
//
// Example output:
//
//	# Project Classes
//	src/User.php:
//	  User (implements JsonSerializable)
//	    prop: id, email
//	    fn: __construct/2, getId/0 int, setEmail/1 void
func Format(report summarize.Report) string {
	if len(report) == 0 {
		return ""
	}

	paths := make([]string, 0, len(report))
	for p := range report {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	b.WriteString("# Project Classes\n")

	for _, path := range paths {
		text := formatFile(report[path])
		if text == "" {
			continue
		}
		entry := fmt.Sprintf("%s:\n%s", path, text)
		// Stop at the first entry that overflows rather than skipping ahead
		// to smaller files: the outline stays a contiguous prefix of the
		// full render, so consumers can tell exactly where coverage ends.
		if b.Len()+len(entry) > MaxBytes {
			fmt.Fprintf(&b, "# ... truncated (%d files total)\n", len(paths))
			break
		}
		b.WriteString(entry)
	}
	return b.String()
}

// formatFile renders one file's result, or "" when there is nothing to show.
func formatFile(res summarize.FileResult) string {
	if res.Err != "" {
		return fmt.Sprintf("  error: %s\n", res.Err)
	}
	s := res.Summary
	if s == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("  " + s.Name)
	if len(s.Interfaces) > 0 {
		fmt.Fprintf(&b, " (implements %s)", strings.Join(s.Interfaces, ", "))
	}
	b.WriteString("\n")

	if len(s.Properties) > 0 {
		names := make([]string, len(s.Properties))
		for i, p := range s.Properties {
			names[i] = p.Name
		}
		fmt.Fprintf(&b, "    prop: %s\n", strings.Join(names, ", "))
	}
	if len(s.Methods) > 0 {
		sigs := make([]string, len(s.Methods))
		for i, m := range s.Methods {
			sigs[i] = methodSig(m)
		}
		fmt.Fprintf(&b, "    fn: %s\n", strings.Join(sigs, ", "))
	}
	return b.String()
}

// methodSig renders "name/arity type", dropping the type when undeclared.
func methodSig(m reduce.MethodEntry) string {
	sig := fmt.Sprintf("%s/%d", m.Name, m.ParameterCount)
	if m.ReturnType != "untyped" {
		sig += " " + m.ReturnType
	}
	return sig
}

package filescan

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// GitignoreMatcher matches paths against gitignore patterns.
type GitignoreMatcher struct {
	patterns []*ignorePattern
}

type ignorePattern struct {
	regex    *regexp.Regexp
	negation bool
	dirOnly  bool
	anchored bool
}

// NewGitignoreMatcher parses a .gitignore file. A missing file yields an
// empty matcher that ignores nothing.
func NewGitignoreMatcher(path string) (*GitignoreMatcher, error) {
	matcher := &GitignoreMatcher{}
	if path == "" {
		return matcher, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return matcher, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if p := parseIgnorePattern(line); p != nil {
			matcher.patterns = append(matcher.patterns, p)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return matcher, nil
}

// Matches reports whether a root-relative path should be ignored. Later
// patterns override earlier ones, so negations work the way git's do.
func (m *GitignoreMatcher) Matches(path string, isDir bool) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	path = filepath.ToSlash(path)

	var lastMatch bool
	for _, p := range m.patterns {
		if p.dirOnly {
			if isDir && p.regex.MatchString(path) {
				lastMatch = !p.negation
			} else if !isDir && p.regex.MatchString(filepath.Dir(path)) {
				lastMatch = !p.negation
			}
			continue
		}
		if p.anchored {
			if p.regex.MatchString(path) {
				lastMatch = !p.negation
			}
		} else if p.regex.MatchString(path) || p.regex.MatchString(filepath.Base(path)) {
			lastMatch = !p.negation
		}
	}
	return lastMatch
}

// parseIgnorePattern compiles one gitignore line. Invalid patterns are
// dropped silently.
func parseIgnorePattern(pattern string) *ignorePattern {
	negation := strings.HasPrefix(pattern, "!")
	if negation {
		pattern = pattern[1:]
	}
	anchored := strings.HasPrefix(pattern, "/")
	dirOnly := strings.HasSuffix(pattern, "/")
	pattern = strings.TrimSuffix(pattern, "/")

	regex, err := regexp.Compile(globToRegex(pattern))
	if err != nil {
		return nil
	}
	return &ignorePattern{
		regex:    regex,
		negation: negation,
		dirOnly:  dirOnly,
		anchored: anchored,
	}
}

// globToRegex converts a gitignore glob into a regular expression.
func globToRegex(pattern string) string {
	var b strings.Builder

	anchored := strings.HasPrefix(pattern, "/")
	if anchored {
		b.WriteString("^")
		pattern = pattern[1:]
	} else {
		b.WriteString("(^|/)")
	}

	for i := 0; i < len(pattern); {
		i += writeGlobChar(&b, pattern, i)
	}

	if anchored {
		b.WriteString("$")
	} else {
		b.WriteString("(/.*)?$")
	}
	return b.String()
}

// writeGlobChar writes the regex equivalent of pattern[i] and returns the
// number of characters consumed.
func writeGlobChar(b *strings.Builder, pattern string, i int) int {
	switch ch := pattern[i]; ch {
	case '*':
		if i+1 < len(pattern) && pattern[i+1] == '*' {
			if i+2 < len(pattern) && pattern[i+2] == '/' {
				b.WriteString("(.*/)?")
				return 3
			}
			b.WriteString(".*")
			return 2
		}
		b.WriteString("[^/]*")
		return 1
	case '?':
		b.WriteString("[^/]")
		return 1
	case '.', '+', '(', ')', '|', '^', '$', '@', '%':
		b.WriteByte('\\')
		b.WriteByte(ch)
		return 1
	case '[':
		j := i + 1
		for j < len(pattern) && pattern[j] != ']' {
			j++
		}
		if j < len(pattern) {
			b.WriteString(pattern[i : j+1])
			return j + 1 - i
		}
		b.WriteString("\\[")
		return 1
	case '\\':
		if i+1 < len(pattern) {
			b.WriteByte('\\')
			b.WriteByte(pattern[i+1])
			return 2
		}
		b.WriteString("\\\\")
		return 1
	default:
		b.WriteByte(ch)
		return 1
	}
}

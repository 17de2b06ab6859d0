package adf

import (
	"strings"
)

// parseInline splits s into text leaves carrying strong, em, code and link
// marks. Unbalanced delimiters are kept as literal text. Marks do not nest.
func parseInline(s string) []Node {
	var nodes []Node
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			nodes = append(nodes, Text(plain.String()))
			plain.Reset()
		}
	}

	for i := 0; i < len(s); {
		if s[i] == '_' && i > 0 && isWordByte(s[i-1]) {
			plain.WriteByte(s[i])
			i++
			continue
		}
		if n, width, ok := matchSpan(s[i:]); ok {
			flush()
			nodes = append(nodes, n)
			i += width
			continue
		}
		plain.WriteByte(s[i])
		i++
	}
	flush()
	return nodes
}

// matchSpan tries each inline construct at the start of s and returns the
// resulting leaf and how many bytes it consumed.
func matchSpan(s string) (Node, int, bool) {
	switch {
	case strings.HasPrefix(s, "**"):
		return delimited(s, "**", MarkStrong)
	case strings.HasPrefix(s, "`"):
		return delimited(s, "`", MarkCode)
	case strings.HasPrefix(s, "*"):
		return delimited(s, "*", MarkEm)
	case strings.HasPrefix(s, "_"):
		return delimited(s, "_", MarkEm)
	case strings.HasPrefix(s, "["):
		return link(s)
	}
	return Node{}, 0, false
}

func delimited(s, delim, mark string) (Node, int, bool) {
	rest := s[len(delim):]
	end := strings.Index(rest, delim)
	if end <= 0 {
		return Node{}, 0, false
	}
	inner := rest[:end]
	if mark != MarkCode && strings.TrimSpace(inner) != inner {
		return Node{}, 0, false
	}
	return Text(inner, Mark{Type: mark}), len(delim)*2 + end, true
}

func link(s string) (Node, int, bool) {
	closeText := strings.Index(s, "](")
	if closeText <= 1 {
		return Node{}, 0, false
	}
	closeHref := strings.IndexByte(s[closeText+2:], ')')
	if closeHref <= 0 {
		return Node{}, 0, false
	}
	text := s[1:closeText]
	if strings.ContainsAny(text, "[]") {
		return Node{}, 0, false
	}
	href := s[closeText+2 : closeText+2+closeHref]
	mark := Mark{Type: MarkLink, Attrs: map[string]any{"href": href}}
	return Text(text, mark), closeText + 2 + closeHref + 1, true
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

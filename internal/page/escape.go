package page

import (
	"strings"

	"golang.org/x/net/html/atom"
)

// escapeStrayTags escapes every '<' that does not open a known HTML element,
// so prose such as "press <Enter>" or "<3" survives sanitising as text.
// Known elements are left for the policy to keep or strip.
func escapeStrayTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if s[i] == '<' && !opensElement(s[i+1:]) {
			b.WriteString("&lt;")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// opensElement reports whether rest, the text after a '<', starts a comment,
// doctype or a start/end tag whose name is a known HTML element.
func opensElement(rest string) bool {
	if strings.HasPrefix(rest, "!--") || strings.HasPrefix(strings.ToLower(rest), "!doctype") {
		return true
	}
	rest = strings.TrimPrefix(rest, "/")
	n := 0
	for n < len(rest) && isNameByte(rest[n]) {
		n++
	}
	if n == 0 || n == len(rest) {
		return false
	}
	switch rest[n] {
	case '>', '/', ' ', '\t', '\n', '\r', '\f':
	default:
		return false
	}
	return atom.Lookup([]byte(strings.ToLower(rest[:n]))) != 0
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-'
}

// escapeMarkdownProse applies escapeStrayTags outside code spans, fenced code
// blocks and autolinks, which markdown already renders literally.
func escapeMarkdownProse(src string) string {
	if !strings.Contains(src, "<") {
		return src
	}
	lines := strings.SplitAfter(src, "\n")
	fence := ""
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fence = trimmed[:3]
			continue
		}
		if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			continue
		}
		lines[i] = escapeInline(line)
	}
	return strings.Join(lines, "")
}

func escapeInline(line string) string {
	var b strings.Builder
	for len(line) > 0 {
		tick := strings.IndexByte(line, '`')
		if tick < 0 {
			b.WriteString(escapeProse(line))
			break
		}
		b.WriteString(escapeProse(line[:tick]))
		line = line[tick:]
		run := len(line) - len(strings.TrimLeft(line, "`"))
		end := strings.Index(line[run:], line[:run])
		if end < 0 {
			b.WriteString(line[:run])
			line = line[run:]
			continue
		}
		span := run + end + run
		b.WriteString(line[:span])
		line = line[span:]
	}
	return b.String()
}

// escapeProse keeps <scheme:...> and <user@host> autolinks intact.
func escapeProse(s string) string {
	var b strings.Builder
	for {
		lt := strings.IndexByte(s, '<')
		if lt < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:lt])
		s = s[lt:]
		if gt := strings.IndexByte(s, '>'); gt > 0 {
			inner := s[1:gt]
			if inner != "" && !strings.ContainsAny(inner, " \t<") && strings.ContainsAny(inner, ":@") {
				b.WriteString(s[:gt+1])
				s = s[gt+1:]
				continue
			}
		}
		b.WriteString(escapeStrayTags(s[:1] + firstRun(s[1:])))
		s = s[1+len(firstRun(s[1:])):]
	}
}

// firstRun returns s up to, not including, the next '<'.
func firstRun(s string) string {
	if i := strings.IndexByte(s, '<'); i >= 0 {
		return s[:i]
	}
	return s
}

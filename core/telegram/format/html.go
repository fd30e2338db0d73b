// Package format renders message text for Telegram's HTML parse mode.
package format

import (
	"html"
	"strings"
)

// Escape makes s safe to embed in an HTML message.
func Escape(s string) string {
	return html.EscapeString(s)
}

// Bold escapes s and wraps it in <b>.
func Bold(s string) string {
	return "<b>" + Escape(s) + "</b>"
}

// Italic escapes s and wraps it in <i>.
func Italic(s string) string {
	return "<i>" + Escape(s) + "</i>"
}

// Lines joins non-empty parts with newlines.
func Lines(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}

// Truncate shortens s to at most max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}

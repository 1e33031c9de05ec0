package search

import (
	"regexp"
	"strings"
)

// truncateWordBudget is the number of words kept in long-text fields.
const truncateWordBudget = 100

const ellipsis = " ..."

// tagPattern matches one markup tag, opening or closing; the first group is
// the tag name.
var tagPattern = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9]*)[^>]*>`)

// truncate shortens text to the word budget, appending an ellipsis marker.
// Text within budget passes through untouched. When the retained window
// leaves a markup element open across the cut, its closing tag is appended
// after the ellipsis so the output stays well formed.
func truncate(text string, budget int) string {
	words := strings.Fields(text)
	if len(words) <= budget {
		return text
	}
	kept := strings.Join(words[:budget], " ")
	out := kept + ellipsis
	if open := lastOpenTag(kept); open != "" {
		out += "</" + open + ">"
	}
	return out
}

// lastOpenTag returns the name of the innermost markup element left open in
// s, or "" when every opened element was closed.
func lastOpenTag(s string) string {
	var stack []string
	for _, m := range tagPattern.FindAllStringSubmatch(s, -1) {
		tag := m[0]
		name := strings.ToLower(m[1])
		switch {
		case strings.HasPrefix(tag, "</"):
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i] == name {
					stack = stack[:i]
					break
				}
			}
		case strings.HasSuffix(tag, "/>"):
			// Self-closing, nothing to track.
		default:
			stack = append(stack, name)
		}
	}
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1]
}

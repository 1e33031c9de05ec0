package ontology

import (
	"sort"
	"unicode"

	"github.com/jobdex/adsearch/internal/domain/concept"
)

// defaultNonBoundaryRunes are characters that must not split a word during
// scanning: the Swedish vowels (for robustness against exotic collations)
// and the parentheses used inside vocabulary terms.
var defaultNonBoundaryRunes = []rune("åäöÅÄÖ()")

// Match is one keyword hit produced by a scan. Start and End are byte
// offsets into the scanned text ([Start, End) spans the matched substring);
// they are only populated when spans were requested.
type Match struct {
	Text  string
	Term  concept.Term
	Start int
	End   int
}

type trieNode struct {
	children map[rune]*trieNode
	term     *concept.Term
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

// Matcher is a case-insensitive multi-pattern matcher over all vocabulary
// terms. It is immutable after construction and safe for concurrent scans.
// Scanning is linear in the input length plus the number of matches,
// independent of vocabulary size.
type Matcher struct {
	root      *trieNode
	wordRunes map[rune]struct{}
	size      int
}

// NewMatcher builds a matcher from a vocabulary. An empty vocabulary yields
// a matcher that never matches.
func NewMatcher(v *Vocabulary) *Matcher {
	m := &Matcher{
		root:      newTrieNode(),
		wordRunes: make(map[rune]struct{}, len(defaultNonBoundaryRunes)),
	}
	for _, r := range defaultNonBoundaryRunes {
		m.wordRunes[r] = struct{}{}
	}
	for _, t := range v.Terms() {
		m.insert(t)
	}
	return m
}

// Len returns the number of terms in the trie.
func (m *Matcher) Len() int { return m.size }

func (m *Matcher) insert(t concept.Term) {
	node := m.root
	for _, r := range t.Term {
		r = unicode.ToLower(r)
		child, ok := node.children[r]
		if !ok {
			child = newTrieNode()
			node.children[r] = child
		}
		node = child
	}
	if node == m.root {
		return
	}
	if node.term == nil {
		m.size++
	}
	term := t
	node.term = &term
}

// isWordRune reports whether r belongs to a word. Letters, digits and
// underscore count, plus the registered non-boundary runes.
func (m *Matcher) isWordRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
		return true
	}
	_, ok := m.wordRunes[r]
	return ok
}

// Scan finds vocabulary terms in text, left to right, always preferring the
// longest term starting at each word boundary; matches never overlap.
// A non-empty typeFilter drops matches of other concept types after
// matching. Empty input yields an empty result.
func (m *Matcher) Scan(text string, typeFilter concept.Type, withSpans bool) []Match {
	if text == "" {
		return nil
	}

	runes := make([]rune, 0, len(text))
	offsets := make([]int, 0, len(text)+1)
	for off, r := range text {
		runes = append(runes, r)
		offsets = append(offsets, off)
	}
	offsets = append(offsets, len(text))

	var matches []Match
	n := len(runes)
	i := 0
	for i < n {
		if !m.isWordRune(runes[i]) {
			i++
			continue
		}

		// i is at a word start; walk the trie for the longest term that
		// also ends on a word boundary.
		node := m.root
		bestEnd := -1
		var bestTerm *concept.Term
		for j := i; j < n; j++ {
			child, ok := node.children[unicode.ToLower(runes[j])]
			if !ok {
				break
			}
			node = child
			end := j + 1
			if node.term != nil && (end == n || !m.isWordRune(runes[end])) {
				bestEnd = end
				bestTerm = node.term
			}
		}

		if bestTerm == nil {
			// No term starts here; skip the rest of this word.
			for i < n && m.isWordRune(runes[i]) {
				i++
			}
			continue
		}

		match := Match{
			Text: text[offsets[i]:offsets[bestEnd]],
			Term: *bestTerm,
		}
		if withSpans {
			match.Start = offsets[i]
			match.End = offsets[bestEnd]
		}
		matches = append(matches, match)
		i = bestEnd
	}

	if typeFilter == "" {
		return matches
	}
	filtered := matches[:0]
	for _, match := range matches {
		if match.Term.Type == typeFilter {
			filtered = append(filtered, match)
		}
	}
	return filtered
}

// Suggest returns up to limit vocabulary terms starting with prefix
// (case-insensitive), in lexicographic order of the trie walk.
func (m *Matcher) Suggest(prefix string, limit int) []string {
	if prefix == "" || limit <= 0 {
		return nil
	}
	node := m.root
	for _, r := range prefix {
		child, ok := node.children[unicode.ToLower(r)]
		if !ok {
			return nil
		}
		node = child
	}
	var out []string
	collectTerms(node, limit, &out)
	return out
}

func collectTerms(node *trieNode, limit int, out *[]string) {
	if len(*out) >= limit {
		return
	}
	if node.term != nil {
		*out = append(*out, node.term.Term)
	}
	childRunes := make([]rune, 0, len(node.children))
	for r := range node.children {
		childRunes = append(childRunes, r)
	}
	sort.Slice(childRunes, func(i, j int) bool { return childRunes[i] < childRunes[j] })
	for _, r := range childRunes {
		if len(*out) >= limit {
			return
		}
		collectTerms(node.children[r], limit, out)
	}
}

// Package voice matches recognised utterances against command phrases.
package voice

import (
	"strings"

	"golang.org/x/text/cases"
)

// Wildcard is the pattern token capturing the rest of an utterance.
const Wildcard = "*"

// Hit is the result of matching an utterance against a list of patterns.
type Hit struct {
	Pattern int    // index of the matching pattern
	Capture string // text captured by the wildcard, "" when the pattern has none
}

// Match returns the first pattern matching utterance. Literal words
// compare under Unicode case folding. A wildcard captures one or more words,
// returned with their original spelling.
func Match(utterance string, patterns []string) (Hit, bool) {
	words := strings.Fields(utterance)
	if len(words) == 0 {
		return Hit{}, false
	}
	folded := make([]string, len(words))
	for i, w := range words {
		folded[i] = foldString(w)
	}

	for i, p := range patterns {
		if capture, ok := matchOne(words, folded, strings.Fields(p)); ok {
			return Hit{Pattern: i, Capture: capture}, true
		}
	}
	return Hit{}, false
}

func matchOne(words, folded, pattern []string) (string, bool) {
	star := -1
	for i, tok := range pattern {
		if tok == Wildcard {
			star = i
			break
		}
	}

	if star < 0 {
		if len(pattern) != len(folded) {
			return "", false
		}
		return "", literalsEqual(folded, pattern)
	}

	before, after := pattern[:star], pattern[star+1:]
	if len(folded) < len(before)+len(after)+1 {
		return "", false
	}
	if !literalsEqual(folded[:len(before)], before) {
		return "", false
	}
	if !literalsEqual(folded[len(folded)-len(after):], after) {
		return "", false
	}
	return strings.Join(words[len(before):len(words)-len(after)], " "), true
}

func literalsEqual(folded, pattern []string) bool {
	for i, tok := range pattern {
		if folded[i] != foldString(tok) {
			return false
		}
	}
	return true
}

// foldString case-folds s. Casers carry state, so each call gets its own.
func foldString(s string) string {
	return cases.Fold().String(s)
}

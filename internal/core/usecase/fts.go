package usecase

import (
	"strings"
	"unicode"
)

// Query tokenization for full-text fallback search: lower-case, strip
// punctuation, drop tokens shorter than two characters (numerals exempt),
// remove stop words.

const (
	minTokenLen       = 2
	importantTokenLen = 4
)

var ftsStopWords = map[string]struct{}{
	// Portuguese
	"de": {}, "da": {}, "do": {}, "das": {}, "dos": {}, "a": {}, "o": {},
	"as": {}, "os": {}, "um": {}, "uma": {}, "e": {}, "ou": {}, "em": {},
	"no": {}, "na": {}, "nos": {}, "nas": {}, "que": {}, "qual": {},
	"quais": {}, "para": {}, "por": {}, "com": {}, "sem": {}, "se": {},
	"ao": {}, "à": {}, "é": {}, "são": {}, "me": {}, "meu": {}, "minha": {},
	// English
	"the": {}, "an": {}, "of": {}, "in": {}, "on": {}, "and": {}, "or": {},
	"is": {}, "are": {}, "to": {}, "for": {}, "what": {}, "which": {},
	"this": {}, "that": {}, "my": {},
}

// TokenizeQuery produces the FTS token list for a raw query.
func TokenizeQuery(query string) []string {
	var tokens []string
	var b strings.Builder

	flush := func() {
		if b.Len() == 0 {
			return
		}
		token := b.String()
		b.Reset()
		if !keepToken(token) {
			return
		}
		tokens = append(tokens, token)
	}

	for _, r := range query {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func keepToken(token string) bool {
	if isNumeric(token) {
		return true
	}
	if len([]rune(token)) < minTokenLen {
		return false
	}
	_, stop := ftsStopWords[token]
	return !stop
}

// ImportantTokens keeps long tokens and numerals, the terms that carry the
// query's meaning in ranked search strategies.
func ImportantTokens(tokens []string) []string {
	var out []string
	for _, token := range tokens {
		if isNumeric(token) || len([]rune(token)) >= importantTokenLen {
			out = append(out, token)
		}
	}
	return out
}

func isNumeric(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

package sparse

import "strings"

// Stop words carry no ranking signal in patent prose.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "its": true, "which": true,
}

// punctuation is trimmed from both ends of a word. Inner characters survive,
// so identifiers such as "AIH-002" stay a single token.
const punctuation = ".,!?;:'\"-()[]{}<>/\\*`"

// Tokenize splits text on whitespace, lowercases, trims surrounding
// punctuation and drops stop words. Index build and query use the same rule.
func Tokenize(text string) []string {
	words := strings.Fields(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, punctuation))
		if cleaned != "" && !stopWords[cleaned] {
			tokens = append(tokens, cleaned)
		}
	}

	return tokens
}

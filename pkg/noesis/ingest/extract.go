// Package ingest extracts candidate facts from unstructured text so a
// knowledge base can be seeded from documents. Extraction is keyword
// pattern matching over tokenized sentences, nothing more.
package ingest

import (
	"io"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/cognicore/noesis/pkg/noesis/logic"
)

// Extraction confidence is fixed: pattern-matched facts are weaker
// than explicitly asserted ones.
const extractedConfidence = 0.6

// Extractor turns text into candidate facts.
type Extractor struct {
	source string
}

// NewExtractor creates an extractor tagging facts with the given
// provenance string.
func NewExtractor(source string) *Extractor {
	if source == "" {
		source = "ingest"
	}
	return &Extractor{source: source}
}

// FromText scans sentences for simple copula patterns and returns the
// extracted facts:
//
//	"socrates is a human"  → is_a(socrates, human)
//	"a dog has a tail"     → has(dog, tail)
//	"water is not dry"     → ¬is_a(water, dry)
func (e *Extractor) FromText(text string) []logic.Fact {
	var facts []logic.Fact
	for _, sentence := range splitSentences(text) {
		tokens := tokenize(sentence)
		if term, ok := matchPattern(tokens); ok {
			facts = append(facts, logic.Fact{
				Term:       term,
				Confidence: extractedConfidence,
				Source:     e.source,
			})
		}
	}
	return facts
}

// FromHTML strips markup and runs FromText over the remaining text.
func (e *Extractor) FromHTML(r io.Reader) ([]logic.Fact, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return e.FromText(buf.String()), nil
}

// matchPattern recognizes "<subject> is [not] [a|an] <object>" and
// "<subject> has [a|an] <object>" token shapes.
func matchPattern(tokens []string) (logic.Term, bool) {
	for i, tok := range tokens {
		if i == 0 || i == len(tokens)-1 {
			continue
		}

		switch tok {
		case "is":
			rest := tokens[i+1:]
			negated := false
			if rest[0] == "not" {
				negated = true
				rest = rest[1:]
			}
			rest = skipArticle(rest)
			if len(rest) == 0 {
				continue
			}
			return logic.Term{
				Name:      "is_a",
				Arguments: []string{tokens[i-1], rest[0]},
				Negated:   negated,
			}, true
		case "has":
			rest := skipArticle(tokens[i+1:])
			if len(rest) == 0 {
				continue
			}
			return logic.Term{
				Name:      "has",
				Arguments: []string{tokens[i-1], rest[0]},
			}, true
		}
	}
	return logic.Term{}, false
}

func skipArticle(tokens []string) []string {
	if len(tokens) > 0 && (tokens[0] == "a" || tokens[0] == "an" || tokens[0] == "the") {
		return tokens[1:]
	}
	return tokens
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
}

// tokenize lowercases and splits on non-alphanumeric runes, keeping
// hyphens inside words.
func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_' {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

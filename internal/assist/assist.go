// Package assist maps free-text questions to the spatial analyses the viewer can
// suggest.
package assist

import (
	"regexp"
	"strings"
)

// Intent is a named analysis with the keyword pattern that triggers it.
type Intent struct {
	Name    string
	Pattern *regexp.Regexp
}

// HelpMessage is returned when no intent matches.
const HelpMessage = "I can help with buffer analysis, intersection, clustering, and optimal location finding. Please specify what you'd like to do."

// Responder tests a query against an ordered intent table. It holds no state
// between calls.
type Responder struct {
	intents []Intent
}

// New builds a responder over intents, kept in the given order.
func New(intents ...Intent) *Responder {
	return &Responder{intents: append([]Intent(nil), intents...)}
}

// Default returns the built-in table.
func Default() *Responder {
	return New(
		Intent{"buffer", regexp.MustCompile(`\b(buffer|distance|proximity|closest|nearest|near)\b`)},
		Intent{"intersection", regexp.MustCompile(`\b(intersect|overlap|cross)\b`)},
		Intent{"cluster", regexp.MustCompile(`\b(cluster|group|pattern)\b`)},
		Intent{"optimal", regexp.MustCompile(`\b(optimal|best|suitable)\b`)},
	)
}

// Match returns the names of every intent whose pattern occurs in the lower-cased
// query, in table order.
func (r *Responder) Match(query string) []string {
	q := strings.ToLower(query)
	var out []string
	for _, in := range r.intents {
		if in.Pattern.MatchString(q) {
			out = append(out, in.Name)
		}
	}
	return out
}

// Suggest answers a query with the matching analyses, or the help message.
func (r *Responder) Suggest(query string) string {
	m := r.Match(query)
	if len(m) == 0 {
		return HelpMessage
	}
	return "Based on your query, I suggest: " + strings.Join(m, ", ") + " analysis."
}

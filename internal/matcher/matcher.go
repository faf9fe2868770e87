// Package matcher implements the keyword predicate that gates both manual
// queries and the notification fan-out.
package matcher

import (
	"strings"

	"github.com/polydictions/bot/internal/models"
)

// Matches reports whether the event matches any of the filter tokens.
//
// An empty filter list matches everything. Tokens are OR-combined: the first
// hit wins. A token wrapped in a matching pair of double or single quotes is
// matched as a phrase with the quotes stripped; anything else is matched as
// a plain case-insensitive substring. Blank tokens never match.
func Matches(event *models.Event, filters []string) bool {
	if len(filters) == 0 {
		return true
	}

	searchable := searchText(event)

	for _, filter := range filters {
		token := strings.TrimSpace(filter)
		if token == "" {
			continue
		}
		if phrase, ok := unquote(token); ok {
			token = phrase
		}
		if strings.Contains(searchable, strings.ToLower(token)) {
			return true
		}
	}
	return false
}

// ParseFilters splits a raw comma-separated keyword input into trimmed,
// non-empty tokens, preserving order and any quoting.
func ParseFilters(input string) []string {
	var filters []string
	for _, part := range strings.Split(input, ",") {
		if token := strings.TrimSpace(part); token != "" {
			filters = append(filters, token)
		}
	}
	return filters
}

// searchText builds the lowercase haystack: event title plus every market
// question, space-joined.
func searchText(event *models.Event) string {
	parts := make([]string, 0, len(event.Markets)+1)
	parts = append(parts, strings.ToLower(event.Title))
	for i := range event.Markets {
		parts = append(parts, strings.ToLower(event.Markets[i].Question))
	}
	return strings.Join(parts, " ")
}

// unquote strips one symmetric pair of double or single quotes. A token that
// starts with a quote but does not end with the same one is left alone and
// matched literally. A lone quote character is its own pair and yields the
// empty phrase, which matches everything.
func unquote(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	first, last := token[0], token[len(token)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		if len(token) == 1 {
			return "", true
		}
		return token[1 : len(token)-1], true
	}
	return "", false
}

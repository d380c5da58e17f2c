// Package query parses chat command text into an alert query filter.
//
// The grammar is token based: the argument text is split on whitespace,
// `service:<name>` and `since:<days>` tokens become filters, and the
// remaining tokens, rejoined in their original order, form the question
// text. Filter prefixes are matched case-insensitively. When a filter
// token appears more than once the last occurrence wins.
package query

import (
	"strconv"
	"strings"

	"github.com/good-yellow-bee/alertrelay/internal/models"
)

const (
	servicePrefix = "service:"
	sincePrefix   = "since:"
)

// Resolve parses raw argument text into a QueryFilter. A `since:` token
// whose value is not a non-negative integer is not a filter and stays
// part of the question.
func Resolve(text string) models.QueryFilter {
	var filter models.QueryFilter

	var question []string
	for _, token := range strings.Fields(text) {
		lower := strings.ToLower(token)
		switch {
		case strings.HasPrefix(lower, servicePrefix):
			filter.Service = token[len(servicePrefix):]
		case strings.HasPrefix(lower, sincePrefix):
			days, err := strconv.Atoi(token[len(sincePrefix):])
			if err != nil || days < 0 {
				question = append(question, token)
				continue
			}
			filter.SinceDays = &days
		default:
			question = append(question, token)
		}
	}

	filter.QuestionText = strings.Join(question, " ")
	return filter
}

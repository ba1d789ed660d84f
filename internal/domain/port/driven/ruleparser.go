package driven

import "github.com/rulehound/rulehound/internal/domain/model"

// RuleParser defines the driven port for parsing rule-file text into
// structured rule records. A syntax error anywhere in the text fails the
// whole file; partial results are never returned.
type RuleParser interface {
	Parse(text string) ([]model.Rule, error)
}

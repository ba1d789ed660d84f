// Package yaraparser implements the RuleParser port using VirusTotal's gyp
// YARA parser.
package yaraparser

import (
	"fmt"
	"strconv"

	"github.com/VirusTotal/gyp"
	"github.com/VirusTotal/gyp/ast"

	"github.com/rulehound/rulehound/internal/domain/model"
	"github.com/rulehound/rulehound/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RuleParser = (*Parser)(nil)

// Parser parses YARA source text into structured rule records.
type Parser struct{}

// NewParser creates a new gyp-backed parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses YARA source text. A syntax error anywhere in the text fails
// the whole file; no partial rule list is returned.
func (p *Parser) Parse(text string) ([]model.Rule, error) {
	ruleSet, err := gyp.ParseString(text)
	if err != nil {
		return nil, fmt.Errorf("parse yara source: %w", err)
	}

	rules := make([]model.Rule, 0, len(ruleSet.Rules))
	for _, r := range ruleSet.Rules {
		rules = append(rules, convertRule(r))
	}
	return rules, nil
}

func convertRule(r *ast.Rule) model.Rule {
	rule := model.Rule{
		Identifier: r.Identifier,
		Global:     r.Global,
		Private:    r.Private,
	}
	if len(r.Tags) > 0 {
		rule.Tags = append([]string(nil), r.Tags...)
	}
	for _, m := range r.Meta {
		rule.Meta = append(rule.Meta, model.RuleMeta{
			Key:   m.Key,
			Value: metaValue(m.Value),
		})
	}
	for _, s := range r.Strings {
		rule.Strings = append(rule.Strings, s.GetIdentifier())
	}
	return rule
}

// metaValue renders a meta value in its source text representation.
func metaValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprintf("%v", val)
	}
}

package model

// Rule is one structured detection-rule record produced by the rule parser.
// The JSON tags define the persistence and API representation.
type Rule struct {
	Identifier string     `json:"identifier"`
	Tags       []string   `json:"tags,omitempty"`
	Global     bool       `json:"global,omitempty"`
	Private    bool       `json:"private,omitempty"`
	Meta       []RuleMeta `json:"meta,omitempty"`
	Strings    []string   `json:"strings,omitempty"`
}

// RuleMeta is one key/value pair from a rule's meta section. Values keep
// their source text representation.
type RuleMeta struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RuleFile groups the rules parsed from one rule-language file.
// RelativePath is relative to the working-copy root (not to a configured
// harvest subdirectory) and uses forward slashes.
type RuleFile struct {
	RelativePath string `json:"file_path"`
	Rules        []Rule `json:"rules"`
}

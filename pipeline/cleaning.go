package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// CleaningRule cleaning rule
type CleaningRule interface {
	Apply(*Record) (*Record, error)
	Name() string
}

// QualityIssue is one rejected row.
type QualityIssue struct {
	Rule    string `json:"rule"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// CleaningStats cleaning counters
type CleaningStats struct {
	TotalProcessed int            `json:"total_processed"`
	Passed         int            `json:"passed"`
	Rejected       int            `json:"rejected"`
	Corrected      int            `json:"corrected"`
	Issues         map[string]int `json:"issues"`
}

// DataCleaner runs every rule over each record in order; the first rule that
// fails rejects the row.
type DataCleaner struct {
	rules  []CleaningRule
	issues []QualityIssue
	stats  CleaningStats
}

// NewDataCleaner returns a cleaner with the default rules.
func NewDataCleaner() *DataCleaner {
	cleaner := &DataCleaner{
		rules:  make([]CleaningRule, 0),
		issues: make([]QualityIssue, 0),
		stats: CleaningStats{
			Issues: make(map[string]int),
		},
	}

	cleaner.AddRule(NewWhitespaceRule())
	cleaner.AddRule(NewRequiredValueRule())
	cleaner.AddRule(NewLabelRule())

	return cleaner
}

func (c *DataCleaner) AddRule(rule CleaningRule) {
	c.rules = append(c.rules, rule)
}

// Clean returns the records that passed every rule.
func (c *DataCleaner) Clean(records []Record) []Record {
	cleaned := make([]Record, 0, len(records))
	for i := range records {
		record, ok := c.cleanOne(&records[i])
		if ok {
			cleaned = append(cleaned, *record)
		}
	}
	return cleaned
}

func (c *DataCleaner) cleanOne(record *Record) (*Record, bool) {
	c.stats.TotalProcessed++

	original := fingerprint(record)
	current := record
	for _, rule := range c.rules {
		next, err := rule.Apply(current)
		if err != nil {
			c.stats.Rejected++
			c.stats.Issues[rule.Name()]++
			c.issues = append(c.issues, QualityIssue{
				Rule:    rule.Name(),
				Line:    record.Line,
				Message: err.Error(),
			})
			return nil, false
		}
		current = next
	}

	c.stats.Passed++
	if fingerprint(current) != original {
		c.stats.Corrected++
	}
	return current, true
}

func (c *DataCleaner) Stats() CleaningStats {
	stats := c.stats
	stats.Issues = make(map[string]int, len(c.stats.Issues))
	for k, v := range c.stats.Issues {
		stats.Issues[k] = v
	}
	return stats
}

func (c *DataCleaner) Issues() []QualityIssue {
	return append([]QualityIssue(nil), c.issues...)
}

func fingerprint(record *Record) string {
	var b strings.Builder
	b.WriteString(record.Label)
	for _, name := range sortedKeys(record.Values) {
		b.WriteByte(0)
		b.WriteString(record.Values[name])
	}
	return b.String()
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WhitespaceRule trims every cell.
type WhitespaceRule struct{}

func NewWhitespaceRule() *WhitespaceRule { return &WhitespaceRule{} }

func (r *WhitespaceRule) Name() string { return "whitespace" }

func (r *WhitespaceRule) Apply(record *Record) (*Record, error) {
	out := &Record{
		Line:   record.Line,
		Label:  strings.TrimSpace(record.Label),
		Values: make(map[string]string, len(record.Values)),
	}
	for k, v := range record.Values {
		out.Values[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// RequiredValueRule rejects rows with an empty feature cell.
type RequiredValueRule struct{}

func NewRequiredValueRule() *RequiredValueRule { return &RequiredValueRule{} }

func (r *RequiredValueRule) Name() string { return "required_value" }

func (r *RequiredValueRule) Apply(record *Record) (*Record, error) {
	for _, name := range sortedKeys(record.Values) {
		if record.Values[name] == "" {
			return nil, fmt.Errorf("%s is empty", name)
		}
	}
	return record, nil
}

// LabelRule normalises the target to "Yes" or "No".
type LabelRule struct{}

func NewLabelRule() *LabelRule { return &LabelRule{} }

func (r *LabelRule) Name() string { return "label" }

func (r *LabelRule) Apply(record *Record) (*Record, error) {
	label, err := ParseLabel(record.Label)
	if err != nil {
		return nil, err
	}
	out := *record
	out.Label = "No"
	if label == 1 {
		out.Label = "Yes"
	}
	return &out, nil
}

// ParseLabel maps the dataset's target spelling to a class.
func ParseLabel(label string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "yes", "1", "true":
		return 1, nil
	case "no", "0", "false":
		return 0, nil
	}
	return 0, fmt.Errorf("unrecognised %s value %q", LabelColumn, label)
}

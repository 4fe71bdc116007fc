// Package classifier maps free-text conversation content to the service
// category taxonomy. The keyword matcher is the deterministic default; an
// LLM-backed variant can wrap it, falling back on any failure or timeout.
// Classification is total: every input maps to some category.
package classifier

import "strings"

// Category is a service category tag used to filter vendor eligibility.
type Category string

const (
	CategoryUnclassified Category = "unclassified"
	CategoryPlumbing     Category = "plumbing"
	CategoryElectrical   Category = "electrical"
	CategoryHVAC         Category = "hvac"
	CategoryAppliance    Category = "appliance"
	CategoryGeneral      Category = "general"
)

// Known reports whether c is a member of the closed taxonomy (excluding the
// unclassified zero value).
func Known(c Category) bool {
	switch c {
	case CategoryPlumbing, CategoryElectrical, CategoryHVAC, CategoryAppliance, CategoryGeneral:
		return true
	}
	return false
}

// Parse normalizes a free-form category string to a taxonomy member.
// Unknown input maps to general so downstream dispatch always has a
// category to filter on.
func Parse(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if Known(c) {
		return c
	}
	return CategoryGeneral
}

// keywordRule maps trigger substrings to a category. Rules are evaluated in
// order; the first match wins.
type keywordRule struct {
	category Category
	keywords []string
}

var keywordRules = []keywordRule{
	{CategoryPlumbing, []string{"leak", "pipe", "faucet", "drain", "toilet", "sink", "clog"}},
	{CategoryElectrical, []string{"breaker", "wiring", "fuse", "outlet", "electrical", "sparking", "socket", "power out"}},
	{CategoryHVAC, []string{"furnace", "thermostat", "air condition", "a/c", "heating", "cooling", "hvac"}},
	{CategoryAppliance, []string{"washer", "dryer", "dishwasher", "refrigerator", "fridge", "oven", "stove"}},
}

// KeywordClassifier is the deterministic ordered keyword matcher.
type KeywordClassifier struct{}

// NewKeywordClassifier creates the keyword-based classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify returns the first category whose keyword list matches the
// transcript, or general when nothing matches. It never fails.
func (k *KeywordClassifier) Classify(transcript string) Category {
	lower := strings.ToLower(transcript)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return CategoryGeneral
}

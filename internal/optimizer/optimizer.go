// Package optimizer suggests cost, performance, reliability and security
// improvements for a synthesized website template.
package optimizer

import (
	"encoding/json"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/unleashedlab/sitestack"
)

// Categories in report order.
var Categories = []string{"security", "cost", "performance", "reliability"}

// Options configures the optimizer.
type Options struct {
	// Category filters suggestions: "all", "security", "cost", "performance", "reliability"
	Category string
}

// Result contains optimization suggestions.
type Result struct {
	Suggestions []sitestack.OptimizeSuggestion
	Summary     sitestack.OptimizeSummary
}

// Optimize analyzes the resources of t and returns suggestions ordered by
// resource then rule.
func Optimize(t *sitestack.Template, opts Options) (*Result, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	doc := gjson.ParseBytes(data)

	category := opts.Category
	if category == "" {
		category = "all"
	}

	result := &Result{}
	doc.Get("Resources").ForEach(func(id, res gjson.Result) bool {
		result.Suggestions = append(result.Suggestions, analyzeResource(id.String(), res, category)...)
		return true
	})
	sort.SliceStable(result.Suggestions, func(i, j int) bool {
		a, b := result.Suggestions[i], result.Suggestions[j]
		if a.Resource != b.Resource {
			return a.Resource < b.Resource
		}
		return a.Rule < b.Rule
	})

	result.Summary = calculateSummary(result.Suggestions)
	return result, nil
}

// analyzeResource applies the rules of the resource's type.
func analyzeResource(id string, res gjson.Result, category string) []sitestack.OptimizeSuggestion {
	var suggestions []sitestack.OptimizeSuggestion

	for _, rule := range rulesByType[res.Get("Type").String()] {
		if category != "all" && rule.Category != category {
			continue
		}
		if !rule.Applies(res.Get("Properties")) {
			continue
		}
		suggestions = append(suggestions, sitestack.OptimizeSuggestion{
			Rule:        rule.ID,
			Resource:    id,
			Category:    rule.Category,
			Severity:    rule.Severity,
			Title:       rule.Title,
			Description: rule.Description,
			Suggestion:  rule.Suggestion,
		})
	}

	return suggestions
}

// calculateSummary tallies suggestions by category.
func calculateSummary(suggestions []sitestack.OptimizeSuggestion) sitestack.OptimizeSummary {
	summary := sitestack.OptimizeSummary{}
	for _, s := range suggestions {
		switch s.Category {
		case "security":
			summary.Security++
		case "cost":
			summary.Cost++
		case "performance":
			summary.Performance++
		case "reliability":
			summary.Reliability++
		}
		summary.Total++
	}
	return summary
}

// Rule represents an optimization rule. Applies receives the resource's
// Properties and reports whether the suggestion is warranted.
type Rule struct {
	ID          string
	Category    string
	Severity    string
	Title       string
	Description string
	Suggestion  string
	Applies     func(props gjson.Result) bool
}

// Rules returns every rule, by resource type.
func Rules() map[string][]Rule {
	return rulesByType
}

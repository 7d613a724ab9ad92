// Package filter drops issues and labels by name.
package filter

import (
	"strings"

	"github.com/dt-pm-tools/issuedata/internal/issue"
)

// ParseList splits a comma-separated label list, trimming whitespace and
// dropping empty entries.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// ExcludeIssues returns the issues that carry none of the excluded labels,
// in their original order. Matching is exact and case-sensitive.
func ExcludeIssues(issues []issue.Issue, excluded []string) []issue.Issue {
	if len(excluded) == 0 {
		return issues
	}

	out := make([]issue.Issue, 0, len(issues))
	for _, iss := range issues {
		if !hasAny(iss, excluded) {
			out = append(out, iss)
		}
	}
	return out
}

// HideLabels returns labels without the ones named in hidden.
func HideLabels(labels []issue.Label, hidden []string) []issue.Label {
	if len(hidden) == 0 {
		return labels
	}

	out := make([]issue.Label, 0, len(labels))
	for _, l := range labels {
		if !contains(hidden, l.Name) {
			out = append(out, l)
		}
	}
	return out
}

func hasAny(iss issue.Issue, names []string) bool {
	for _, name := range names {
		if iss.HasLabel(name) {
			return true
		}
	}
	return false
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

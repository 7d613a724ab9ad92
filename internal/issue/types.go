// Package issue holds the tracker-neutral view of an issue as fetched from
// the issue source. Values are read-only once fetched.
package issue

import "time"

// Issue represents an open issue from the tracker.
type Issue struct {
	Number    int
	Title     string
	Body      string
	Labels    []Label
	CreatedAt time.Time
	UpdatedAt time.Time
	User      User
}

// Label is a tracker label. Two labels are equal when their names match.
type Label struct {
	Name  string
	Color string // six hex digits, no leading '#'
}

// User is the issue author.
type User struct {
	Login      string
	AvatarURL  string
	GravatarID string
}

// LabelNames returns the names of the issue's labels in order.
func (i Issue) LabelNames() []string {
	names := make([]string, len(i.Labels))
	for n, l := range i.Labels {
		names[n] = l.Name
	}
	return names
}

// HasLabel reports whether the issue carries a label with the given name.
func (i Issue) HasLabel(name string) bool {
	for _, l := range i.Labels {
		if l.Name == name {
			return true
		}
	}
	return false
}

// Numbers returns the issue numbers of the given issues, for logging.
func Numbers(issues []Issue) []int {
	nums := make([]int, len(issues))
	for n, i := range issues {
		nums[n] = i.Number
	}
	return nums
}

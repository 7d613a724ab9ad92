// Package sorter orders records under a configurable strategy.
package sorter

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dt-pm-tools/issuedata/internal/record"
)

// Kind identifies a sort strategy.
type Kind int

// Strategy kinds.
const (
	ByVersion Kind = iota
	ByCreated
	ByUpdated
	ByPostsPublished
)

// Strategy is a parsed sort configuration string.
type Strategy struct {
	Kind       Kind
	Descending bool
	raw        string
}

// String returns the configuration string the strategy was parsed from.
func (s Strategy) String() string {
	if s.raw != "" {
		return s.raw
	}
	return "version"
}

// ParseStrategy parses a sort configuration string. "created-asc",
// "created-desc", "updated-asc", "updated-desc" and "posts-desc" select the
// matching strategy; anything else sorts by version label.
func ParseStrategy(s string) Strategy {
	raw := strings.TrimSpace(s)
	switch strings.ToLower(raw) {
	case "created-asc":
		return Strategy{Kind: ByCreated, raw: raw}
	case "created-desc":
		return Strategy{Kind: ByCreated, Descending: true, raw: raw}
	case "updated-asc":
		return Strategy{Kind: ByUpdated, raw: raw}
	case "updated-desc":
		return Strategy{Kind: ByUpdated, Descending: true, raw: raw}
	case "posts-desc":
		return Strategy{Kind: ByPostsPublished, Descending: true, raw: raw}
	default:
		return Strategy{Kind: ByVersion, Descending: true, raw: raw}
	}
}

// Sort orders records in place and returns them. Records that compare equal
// keep their fetch order.
func Sort(records []record.Record, s Strategy) []record.Record {
	compare := s.comparator()
	slices.SortStableFunc(records, func(a, b record.Record) int {
		if c := compare(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.Meta().Index, b.Meta().Index)
	})
	return records
}

func (s Strategy) comparator() func(a, b record.Record) int {
	switch s.Kind {
	case ByCreated:
		return byTime(s.Descending, func(r record.Record) time.Time { return r.Meta().CreatedAt })
	case ByUpdated:
		return byTime(s.Descending, func(r record.Record) time.Time { return r.Meta().UpdatedAt })
	case ByPostsPublished:
		return byPublished
	default:
		return byVersion
	}
}

func byTime(desc bool, key func(record.Record) time.Time) func(a, b record.Record) int {
	return func(a, b record.Record) int {
		c := key(a).Compare(key(b))
		if desc {
			return -c
		}
		return c
	}
}

// byPublished orders newest first by the first post's publication date,
// falling back to the issue creation date. Records with neither go last.
func byPublished(a, b record.Record) int {
	ta, tb := publishedAt(a), publishedAt(b)
	switch {
	case ta.IsZero() && tb.IsZero():
		return 0
	case ta.IsZero():
		return 1
	case tb.IsZero():
		return -1
	}
	return tb.Compare(ta)
}

func publishedAt(r record.Record) time.Time {
	if raw, ok := r.FirstPublished(); ok {
		if t, err := ParseTime(raw); err == nil {
			return t
		}
	}
	return r.Meta().CreatedAt
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a post publication timestamp.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// Version is a semantic version taken from a label.
type Version [3]int

var versionPattern = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)$`)

// ParseVersion parses a label such as "1.2.3" or "v1.2.3".
func ParseVersion(s string) (Version, bool) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, false
	}
	var v Version
	for i := range v {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Version{}, false
		}
		v[i] = n
	}
	return v, true
}

// Compare compares two versions component by component.
func (v Version) Compare(o Version) int {
	for i := range v {
		if c := cmp.Compare(v[i], o[i]); c != 0 {
			return c
		}
	}
	return 0
}

// VersionOf returns the first version-shaped label in labels, or 0.0.0.
func VersionOf(labels []string) Version {
	for _, l := range labels {
		if v, ok := ParseVersion(l); ok {
			return v
		}
	}
	return Version{}
}

// byVersion orders highest version first.
func byVersion(a, b record.Record) int {
	return VersionOf(b.Meta().AllLabels).Compare(VersionOf(a.Meta().AllLabels))
}

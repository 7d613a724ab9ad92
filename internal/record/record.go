// Package record builds the normalized output records and the document
// that aggregates them.
package record

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/dt-pm-tools/issuedata/internal/color"
	"github.com/dt-pm-tools/issuedata/internal/issue"
	"github.com/dt-pm-tools/issuedata/internal/payload"
)

// Reserved record keys. They overwrite payload keys of the same name.
const (
	KeyIssueNumber = "issue_number"
	KeyLabels      = "labels"
	KeyIcon        = "icon"
)

// Label is an output label decorated with its HSL color.
type Label struct {
	Name  string    `json:"name"  yaml:"name"`
	Color string    `json:"color" yaml:"color"`
	HSL   color.HSL `json:"hsl"   yaml:"hsl"`
}

// Record is one finalized issue ready for output.
type Record struct {
	IssueNumber int
	Labels      []Label
	Icon        string

	fields payload.Payload
	meta   Meta
}

// Meta is the issue metadata a record keeps for ordering. It is never
// serialized.
type Meta struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	// AllLabels is the issue's label set before hidden labels were removed.
	AllLabels []string
	// Index is the issue's position in fetch order.
	Index int
}

// Document is the single output artifact.
type Document struct {
	Version string   `json:"version" yaml:"version"`
	Content []Record `json:"content" yaml:"content"`
}

// Build combines a parsed payload with the issue's number, its visible
// labels and the resolved icon into a new Record. p is not modified.
func Build(iss issue.Issue, p payload.Payload, visible []issue.Label, icon string, index int) Record {
	labels := make([]Label, len(visible))
	for i, l := range visible {
		labels[i] = Decorate(l)
	}

	return Record{
		IssueNumber: iss.Number,
		Labels:      labels,
		Icon:        icon,
		fields:      p.Clone(),
		meta: Meta{
			CreatedAt: iss.CreatedAt,
			UpdatedAt: iss.UpdatedAt,
			AllLabels: iss.LabelNames(),
			Index:     index,
		},
	}
}

// Decorate converts a tracker label into an output label. Labels with a
// missing or invalid color get the zero HSL.
func Decorate(l issue.Label) Label {
	hsl, _ := color.HexToHSL(l.Color)
	return Label{Name: l.Name, Color: l.Color, HSL: hsl}
}

// Meta returns the record's ordering metadata.
func (r Record) Meta() Meta {
	return r.meta
}

// Payload returns a copy of the author-supplied fields.
func (r Record) Payload() payload.Payload {
	return r.fields.Clone()
}

// FirstPublished returns the raw publication date of the payload's first
// post without copying the payload.
func (r Record) FirstPublished() (string, bool) {
	return r.fields.FirstPublished()
}

// Fields returns the record as a flat map: the payload plus the reserved
// keys.
func (r Record) Fields() map[string]any {
	out := make(map[string]any, len(r.fields)+3)
	for k, v := range r.fields {
		out[k] = v
	}
	labels := r.Labels
	if labels == nil {
		labels = []Label{}
	}
	out[KeyIssueNumber] = r.IssueNumber
	out[KeyLabels] = labels
	out[KeyIcon] = r.Icon
	return out
}

// MarshalJSON implements json.Marshaler. '&', '<' and '>' are written
// literally.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r.Fields()); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalYAML implements yaml.Marshaler.
func (r Record) MarshalYAML() (interface{}, error) {
	return r.Fields(), nil
}

// Numbers returns the issue numbers of records, for logging.
func Numbers(records []Record) []int {
	nums := make([]int, len(records))
	for i, r := range records {
		nums[i] = r.IssueNumber
	}
	return nums
}

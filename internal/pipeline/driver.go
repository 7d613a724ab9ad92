// Package pipeline turns the open issues of a repository into the output
// document: fetch, filter, extract, resolve icons, sort, write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dt-pm-tools/issuedata/internal/filter"
	"github.com/dt-pm-tools/issuedata/internal/icon"
	"github.com/dt-pm-tools/issuedata/internal/issue"
	"github.com/dt-pm-tools/issuedata/internal/logging"
	"github.com/dt-pm-tools/issuedata/internal/payload"
	"github.com/dt-pm-tools/issuedata/internal/record"
	"github.com/dt-pm-tools/issuedata/internal/sorter"
)

// ErrWriteFailed indicates the document was built but could not be written.
var ErrWriteFailed = errors.New("writing document failed")

// IssueSource lists the open issues of the configured repository.
type IssueSource interface {
	ListOpenIssues(ctx context.Context) ([]issue.Issue, error)
}

// DocumentSink persists the finished document.
type DocumentSink interface {
	Write(path string, doc record.Document) error
}

// IconResolver picks the icon URL of a record.
type IconResolver interface {
	Resolve(ctx context.Context, number int, candidate string, author issue.User) icon.Resolution
}

// Options are the run settings the driver needs.
type Options struct {
	Version       string
	OutputPath    string
	Strategy      sorter.Strategy
	ExcludeLabels []string
	HideLabels    []string
}

// Result summarizes a run.
type Result struct {
	Fetched  int
	Filtered int
	Emitted  int
	Skipped  int
	Path     string
	Document record.Document
}

// Driver runs the pipeline. Issues are processed one at a time.
type Driver struct {
	source   IssueSource
	sink     DocumentSink
	resolver IconResolver
	opts     Options
	logger   *slog.Logger
}

// NewDriver creates a Driver. A nil logger discards output.
func NewDriver(source IssueSource, sink DocumentSink, resolver IconResolver, opts Options, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Driver{
		source:   source,
		sink:     sink,
		resolver: resolver,
		opts:     opts,
		logger:   logger,
	}
}

// Run builds and writes the document. A failure to list issues aborts the
// run. Per-issue problems only skip that issue. A write failure is logged
// and returned wrapped in ErrWriteFailed, together with the built result.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	issues, err := d.source.ListOpenIssues(ctx)
	if err != nil {
		d.logger.Error("Failed to fetch issues", "error", err)
		return Result{}, fmt.Errorf("listing issues: %w", err)
	}
	d.logger.Info(fmt.Sprintf("Repository has %d open issues: %v", len(issues), issue.Numbers(issues)))

	kept := filter.ExcludeIssues(issues, d.opts.ExcludeLabels)
	if len(d.opts.ExcludeLabels) > 0 {
		d.logger.Info(fmt.Sprintf("After excluding %v, %d issues remain: %v", d.opts.ExcludeLabels, len(kept), issue.Numbers(kept)))
	}
	d.logger.Info(fmt.Sprintf("Found %d issues to process", len(kept)))

	records := make([]record.Record, 0, len(kept))
	for i, iss := range kept {
		rec, ok := d.process(ctx, iss, i)
		if ok {
			records = append(records, rec)
		}
	}

	sorter.Sort(records, d.opts.Strategy)
	d.logger.Info(fmt.Sprintf("Sorted by %s, issues: %v", d.opts.Strategy, record.Numbers(records)))

	doc := record.Document{Version: d.opts.Version, Content: records}
	res := Result{
		Fetched:  len(issues),
		Filtered: len(kept),
		Emitted:  len(records),
		Skipped:  len(kept) - len(records),
		Path:     d.opts.OutputPath,
		Document: doc,
	}

	if err := d.sink.Write(d.opts.OutputPath, doc); err != nil {
		d.logger.Error(fmt.Sprintf("Error writing to file %s", d.opts.OutputPath), "error", err)
		return res, fmt.Errorf("%w: %s: %w", ErrWriteFailed, d.opts.OutputPath, err)
	}

	d.logger.Info(fmt.Sprintf("Successfully generated %s", d.opts.OutputPath))
	return res, nil
}

// process builds the record of one issue. It returns false when the issue
// carries no usable payload.
func (d *Driver) process(ctx context.Context, iss issue.Issue, index int) (record.Record, bool) {
	d.logger.Info(fmt.Sprintf("Processing issue #%d", iss.Number), "title", iss.Title)

	p, err := payload.Extract(iss.Body)
	if err != nil {
		switch {
		case !payload.IsSkip(err):
			d.logger.Error(fmt.Sprintf("Failed to extract JSON content from issue #%d", iss.Number), "error", err)
		case errors.Is(err, payload.ErrEmptyBody):
			d.logger.Warn(fmt.Sprintf("Issue #%d has no body content, skipping...", iss.Number))
		case errors.Is(err, payload.ErrNoPayload):
			d.logger.Warn(fmt.Sprintf("No JSON content found in issue #%d", iss.Number))
		default:
			d.logger.Warn(fmt.Sprintf("Invalid JSON content in issue #%d, skipping...", iss.Number), "error", err)
		}
		return record.Record{}, false
	}

	resolved := d.resolver.Resolve(ctx, iss.Number, p.Icon(), iss.User)
	visible := filter.HideLabels(iss.Labels, d.opts.HideLabels)
	rec := record.Build(iss, p, visible, resolved.URL, index)

	d.logger.Debug(fmt.Sprintf("#%d output record: %s", iss.Number, payload.Payload(rec.Fields())))
	return rec, true
}

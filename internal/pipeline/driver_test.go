package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dt-pm-tools/issuedata/internal/icon"
	"github.com/dt-pm-tools/issuedata/internal/issue"
	"github.com/dt-pm-tools/issuedata/internal/logging"
	"github.com/dt-pm-tools/issuedata/internal/record"
	"github.com/dt-pm-tools/issuedata/internal/sorter"
)

type fakeSource struct {
	issues []issue.Issue
	err    error
}

func (f *fakeSource) ListOpenIssues(context.Context) ([]issue.Issue, error) {
	return f.issues, f.err
}

type fakeSink struct {
	path  string
	doc   record.Document
	err   error
	calls int
}

func (f *fakeSink) Write(path string, doc record.Document) error {
	f.calls++
	f.path = path
	f.doc = doc
	return f.err
}

type fakeResolver struct {
	candidates []string
}

func (f *fakeResolver) Resolve(_ context.Context, _ int, candidate string, author issue.User) icon.Resolution {
	f.candidates = append(f.candidates, candidate)
	if candidate != "" {
		return icon.Resolution{URL: candidate, Source: icon.SourceCandidate}
	}
	return icon.Fallback(author)
}

var user = issue.User{Login: "octo", AvatarURL: "https://avatars.test/octo"}

func jsonBody(s string) string {
	return "Please add:\n\n```json\n" + s + "\n```\n"
}

func opts() Options {
	return Options{
		Version:    "v2",
		OutputPath: "/tmp/out/v2/data.json",
		Strategy:   sorter.ParseStrategy("created-desc"),
	}
}

func TestRun_SkipsIssuesWithoutPayload(t *testing.T) {
	source := &fakeSource{issues: []issue.Issue{
		{Number: 1, Body: jsonBody(`{"name": "valid"}`), User: user},
		{Number: 2, Body: "", User: user},
	}}
	sink := &fakeSink{}

	res, err := NewDriver(source, sink, &fakeResolver{}, opts(), nil).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.doc.Content, 1)
	assert.Equal(t, 1, sink.doc.Content[0].IssueNumber)
	assert.Equal(t, "valid", sink.doc.Content[0].Payload()["name"])
	assert.Equal(t, "v2", sink.doc.Version)
	assert.Equal(t, "/tmp/out/v2/data.json", sink.path)

	assert.Equal(t, Result{Fetched: 2, Filtered: 2, Emitted: 1, Skipped: 1, Path: sink.path, Document: sink.doc}, res)
}

func TestRun_FullFlow(t *testing.T) {
	source := &fakeSource{issues: []issue.Issue{
		{
			Number:    10,
			Body:      jsonBody(`{"name": "old", "icon": "https://cdn.test/old.png"}`),
			Labels:    []issue.Label{{Name: "blog", Color: "ff0000"}, {Name: "pinned", Color: "000000"}},
			CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			User:      user,
		},
		{
			Number:    11,
			Body:      jsonBody(`{"name": "pending"}`),
			Labels:    []issue.Label{{Name: "审核中"}},
			CreatedAt: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
			User:      user,
		},
		{
			Number:    12,
			Body:      jsonBody(`{"name": "new"}`),
			CreatedAt: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
			User:      issue.User{AvatarURL: "https://avatars.test/x", GravatarID: "abc"},
		},
		{
			Number:    13,
			Body:      jsonBody(`{"name": }`),
			CreatedAt: time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
			User:      user,
		},
	}}
	sink := &fakeSink{}
	resolver := &fakeResolver{}

	o := opts()
	o.ExcludeLabels = []string{"审核中"}
	o.HideLabels = []string{"pinned"}

	res, err := NewDriver(source, sink, resolver, o, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, res.Fetched)
	assert.Equal(t, 3, res.Filtered)
	assert.Equal(t, 2, res.Emitted)
	assert.Equal(t, 1, res.Skipped)

	assert.Equal(t, []int{12, 10}, record.Numbers(sink.doc.Content))

	newest := sink.doc.Content[0]
	assert.Equal(t, "https://gravatar.com/avatar/abc?s=256&d=identicon", newest.Icon)
	assert.Empty(t, newest.Labels)

	oldest := sink.doc.Content[1]
	assert.Equal(t, "https://cdn.test/old.png", oldest.Icon)
	require.Len(t, oldest.Labels, 1)
	assert.Equal(t, "blog", oldest.Labels[0].Name)
	assert.Equal(t, 100, oldest.Labels[0].HSL.S)

	// Excluded and malformed issues never reach the resolver.
	assert.Equal(t, []string{"https://cdn.test/old.png", ""}, resolver.candidates)
}

func TestRun_VersionStrategy(t *testing.T) {
	source := &fakeSource{issues: []issue.Issue{
		{Number: 1, Body: jsonBody(`{}`), Labels: []issue.Label{{Name: "1.2.0"}}, User: user},
		{Number: 2, Body: jsonBody(`{}`), Labels: []issue.Label{{Name: "1.10.0"}}, User: user},
	}}
	sink := &fakeSink{}

	o := opts()
	o.Strategy = sorter.ParseStrategy("version")
	o.HideLabels = []string{"1.10.0"}

	_, err := NewDriver(source, sink, &fakeResolver{}, o, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{2, 1}, record.Numbers(sink.doc.Content))
}

func TestRun_FetchFailure(t *testing.T) {
	source := &fakeSource{err: errors.New("boom")}
	sink := &fakeSink{}
	var buf bytes.Buffer

	_, err := NewDriver(source, sink, &fakeResolver{}, opts(), logging.New(&buf, slog.LevelInfo)).Run(context.Background())

	require.Error(t, err)
	assert.ErrorContains(t, err, "boom")
	assert.Zero(t, sink.calls, "nothing is written")
	assert.Contains(t, buf.String(), "[ERROR] Failed to fetch issues")
}

func TestRun_WriteFailure(t *testing.T) {
	source := &fakeSource{issues: []issue.Issue{{Number: 1, Body: jsonBody(`{"a": 1}`), User: user}}}
	sink := &fakeSink{err: errors.New("disk full")}
	var buf bytes.Buffer

	res, err := NewDriver(source, sink, &fakeResolver{}, opts(), logging.New(&buf, slog.LevelInfo)).Run(context.Background())

	require.ErrorIs(t, err, ErrWriteFailed)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, res.Emitted)
	assert.Contains(t, buf.String(), "[ERROR] Error writing to file")
	assert.NotContains(t, buf.String(), "Successfully generated")
}

func TestRun_Logs(t *testing.T) {
	source := &fakeSource{issues: []issue.Issue{
		{Number: 1, Body: "no json here", User: user},
		{Number: 2, Body: "", User: user},
		{Number: 3, Title: "Add my blog", Body: jsonBody(`{"a": 1}`), User: user},
	}}
	var buf bytes.Buffer

	_, err := NewDriver(source, &fakeSink{}, &fakeResolver{}, opts(), logging.New(&buf, slog.LevelInfo)).Run(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[INFO] Repository has 3 open issues: [1 2 3]")
	assert.Contains(t, out, "[INFO] Found 3 issues to process")
	assert.Contains(t, out, `[INFO] Processing issue #3 title="Add my blog"`)
	assert.Contains(t, out, "[WARN] No JSON content found in issue #1")
	assert.Contains(t, out, "[WARN] Issue #2 has no body content, skipping...")
	assert.Contains(t, out, "[INFO] Sorted by created-desc, issues: [3]")
	assert.Contains(t, out, "[INFO] Successfully generated /tmp/out/v2/data.json")
}

func TestRun_EmptyRepository(t *testing.T) {
	sink := &fakeSink{}

	res, err := NewDriver(&fakeSource{}, sink, &fakeResolver{}, opts(), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sink.calls, "an empty document is still written")
	assert.Empty(t, sink.doc.Content)
	assert.Zero(t, res.Emitted)
}

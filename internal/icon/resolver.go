// Package icon decides which icon URL a record publishes.
package icon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dt-pm-tools/issuedata/internal/issue"
	"github.com/dt-pm-tools/issuedata/internal/logging"
)

// DefaultTimeout bounds a single reachability probe.
const DefaultTimeout = 5 * time.Second

// gravatarURL is the fallback avatar template for authors with a gravatar id.
const gravatarURL = "https://gravatar.com/avatar/%s?s=256&d=identicon"

// Source says where a resolved icon URL came from.
type Source string

// Resolution sources.
const (
	SourceCandidate Source = "candidate"
	SourceGravatar  Source = "gravatar"
	SourceAvatar    Source = "avatar"
)

// HTTPClient interface for HTTP operations (allows mocking in tests).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resolution is the outcome of resolving one icon.
type Resolution struct {
	URL    string
	Source Source
}

// Resolver validates candidate icon URLs and falls back to the author's
// avatar.
type Resolver struct {
	probe      bool
	timeout    time.Duration
	httpClient HTTPClient
	logger     *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProbe toggles the HEAD reachability check. When disabled, any
// syntactically valid candidate is kept.
func WithProbe(enabled bool) Option {
	return func(r *Resolver) { r.probe = enabled }
}

// WithTimeout sets the probe timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithHTTPClient sets the client used for probes.
func WithHTTPClient(c HTTPClient) Option {
	return func(r *Resolver) { r.httpClient = c }
}

// WithLogger sets the logger for resolution outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a Resolver. Probing is on by default.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		probe:      true,
		timeout:    DefaultTimeout,
		httpClient: http.DefaultClient,
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the icon URL for an issue. It never fails: an absent,
// malformed or unreachable candidate falls back to the author's avatar.
func (r *Resolver) Resolve(ctx context.Context, number int, candidate string, author issue.User) Resolution {
	if candidate != "" {
		if err := r.validate(ctx, candidate); err != nil {
			r.logger.Warn(fmt.Sprintf("#%d icon URL %s is not valid or accessible: %v", number, candidate, err))
		} else {
			r.logger.Info(fmt.Sprintf("#%d icon URL %s is valid: true", number, candidate))
			return Resolution{URL: candidate, Source: SourceCandidate}
		}
	}

	res := Fallback(author)
	r.logger.Info(fmt.Sprintf("#%d icon URL %q is valid: false, using %s %s", number, candidate, res.Source, res.URL))
	return res
}

// Fallback returns the author-derived icon: a gravatar identicon when the
// author has a gravatar id, otherwise the avatar URL verbatim.
func Fallback(author issue.User) Resolution {
	if author.GravatarID != "" {
		return Resolution{
			URL:    fmt.Sprintf(gravatarURL, url.PathEscape(author.GravatarID)),
			Source: SourceGravatar,
		}
	}
	return Resolution{URL: author.AvatarURL, Source: SourceAvatar}
}

// validate checks URL syntax and, when probing is enabled, reachability.
func (r *Resolver) validate(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("not an absolute http(s) URL")
	}

	if !r.probe {
		return nil
	}
	return r.head(ctx, u.String())
}

func (r *Resolver) head(ctx context.Context, target string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probing: %w", err)
	}
	defer resp.Body.Close()

	r.logger.Debug(fmt.Sprintf("icon URL %s response status: %d", target, resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return nil
}

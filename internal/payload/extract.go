// Package payload pulls the JSON data block an author embeds in an issue
// description.
//
// Extraction runs in two stages: find the first ```json fenced block that
// wraps a brace-delimited span, then decode the span from its first '{' to
// its last '}'. Everything outside the fence is ignored, so authors can
// surround the block with prose and screenshots.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Payload is the author-supplied key/value data of one issue.
type Payload map[string]any

var (
	// ErrEmptyBody indicates the issue has no description.
	ErrEmptyBody = errors.New("issue body is empty")

	// ErrNoPayload indicates the body has no ```json block holding an object.
	ErrNoPayload = errors.New("no JSON block found")

	// ErrMalformedPayload indicates the fenced block could not be decoded.
	ErrMalformedPayload = errors.New("malformed JSON block")
)

var fencePattern = regexp.MustCompile("(?s)```json\\s*\\{.*?\\}\\s*```")

// Extract returns the payload embedded in body. All errors it returns mean
// the issue carries no usable payload and should be skipped.
func Extract(body string) (Payload, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}

	span, ok := findObjectSpan(body)
	if !ok {
		return nil, ErrNoPayload
	}

	p, err := decode(span)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return p, nil
}

// IsSkip reports whether err is one of the extraction outcomes that mean
// "no payload here".
func IsSkip(err error) bool {
	return errors.Is(err, ErrEmptyBody) ||
		errors.Is(err, ErrNoPayload) ||
		errors.Is(err, ErrMalformedPayload)
}

// findObjectSpan locates the first fenced json block and returns the text
// between its first '{' and last '}' inclusive.
func findObjectSpan(body string) (string, bool) {
	block := fencePattern.FindString(body)
	if block == "" {
		return "", false
	}

	start := strings.IndexByte(block, '{')
	end := strings.LastIndexByte(block, '}')
	if start < 0 || end < start {
		return "", false
	}
	return block[start : end+1], true
}

func decode(span string) (Payload, error) {
	dec := json.NewDecoder(strings.NewReader(span))
	dec.UseNumber()

	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New("payload is not an object")
	}

	// The span must hold exactly one value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected content after JSON object")
	}
	return p, nil
}

// Clone returns a shallow copy of p so callers can add keys without
// touching the parsed payload.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String returns the compact JSON form of p, for logging.
func (p Payload) String() string {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]any(p)); err != nil {
		return fmt.Sprintf("%v", map[string]any(p))
	}
	return strings.TrimSpace(buf.String())
}

// Icon returns the candidate icon URL, or "" when the payload has none.
func (p Payload) Icon() string {
	s, _ := p["icon"].(string)
	return strings.TrimSpace(s)
}

// FirstPublished returns the raw "published" value of the first entry in
// the payload's "posts" sequence.
func (p Payload) FirstPublished() (string, bool) {
	posts, ok := p["posts"].([]any)
	if !ok || len(posts) == 0 {
		return "", false
	}
	first, ok := posts[0].(map[string]any)
	if !ok {
		return "", false
	}
	published, ok := first["published"].(string)
	if !ok || strings.TrimSpace(published) == "" {
		return "", false
	}
	return published, true
}

package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound marks an upstream 404. Callers that can recover from a missing
// file (the slug-redirect fallback) test for it with errors.Is; every other
// upstream failure is fatal to the operation that hit it.
var ErrNotFound = errors.New("not found")

// UpstreamError is a failed call to the content repository. StatusCode is the
// upstream HTTP status when one was received, zero otherwise.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("source: %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("source: %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) match upstream 404s.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// FrontMatterError is a post file whose front matter block failed to parse.
// The whole file is rejected; partial posts are never stored.
type FrontMatterError struct {
	Line   int // 1-based line number of the offending line, 0 if structural
	Reason string
}

func (e *FrontMatterError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("front matter: line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("front matter: %s", e.Reason)
}

// StoreError is a failed database operation. Mutation batches apply wholly or
// not at all, so a StoreError means the store is unchanged.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a collaborator that is missing credentials.
	ErrConfiguration = errors.New("configuration error")
	// ErrUpstream marks a non-2xx or transport failure from search, extraction or model calls.
	ErrUpstream = errors.New("upstream error")
	// ErrNotFound marks an unknown article id.
	ErrNotFound = errors.New("not found")
	// ErrPersistence marks a failed write to the article store.
	ErrPersistence = errors.New("persistence error")
	// ErrRefreshInProgress is returned when another refresh holds the article lease.
	ErrRefreshInProgress = errors.New("refresh already in progress")
)

// FetchError wraps a transport failure while fetching a candidate page.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap exposes both the cause and the upstream classification to errors.Is.
func (e *FetchError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}

// UpstreamStatusError describes a non-2xx response from an external service.
type UpstreamStatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

func (e *UpstreamStatusError) Unwrap() error {
	return ErrUpstream
}

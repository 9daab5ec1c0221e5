package rag

import (
	"errors"
	"fmt"
)

// ErrEmptyCorpus is returned when index construction is attempted with no
// documents. The caller should surface it as a fatal initialization failure
// rather than writing an empty index.
var ErrEmptyCorpus = errors.New("corpus is empty: no documents survived ingestion")

// FetchError reports a failed page fetch. It is recovered inside the corpus
// builder: the page is skipped and the batch continues.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SynthesisError reports a failed embedding or generation call for one query.
// It never affects the persisted index or the cached corpus.
type SynthesisError struct {
	Op  string
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis %s: %v", e.Op, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// ConfigurationError reports a missing required setting, detected at startup.
type ConfigurationError struct {
	Var string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Var)
}

package usecase

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrMalformedRecord marks a candidate that failed identity-key
	// validation. Absorbed per record; never aborts a batch.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrRemoteFetch is fatal to a run: no merge or publish is attempted.
	ErrRemoteFetch = errors.New("remote snapshot fetch failed")
	// ErrPublishConflict means the remote advanced since our fetch; the run
	// fails cleanly and the next scheduled run retries with a fresh snapshot.
	ErrPublishConflict = errors.New("remote snapshot publish conflict")
	// ErrScraperFailure degrades one entity type to zero candidates.
	ErrScraperFailure = errors.New("scraper failure")
)

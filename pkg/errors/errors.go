// Package errors defines the sentinel errors shared across the corpus
// readers, the ingestion service, and the pipeline configuration.
package errors

import "errors"

var (
	ErrMalformedRecord = errors.New("malformed corpus record")
	ErrMissingURL      = errors.New("record missing url")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownLanguage = errors.New("unknown stopword language")
)

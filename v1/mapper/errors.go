package mapper

import "errors"

// ErrMultipleResults is returned by One when more than one document matches.
var ErrMultipleResults = errors.New("multiple results where at most one was expected")

// IsMultipleResults reports whether err wraps ErrMultipleResults.
func IsMultipleResults(err error) bool {
	return errors.Is(err, ErrMultipleResults)
}

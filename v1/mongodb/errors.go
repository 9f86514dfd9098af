package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Common errors returned by this package and the layers above it. Driver
// errors are translated into these so callers never need to import the
// driver to classify a failure.
var (
	// ErrConnection is returned when a client cannot be opened, a datasource
	// is unknown, or the server is unreachable.
	ErrConnection = errors.New("mongodb: connection error")

	// ErrDocumentNotFound is returned when a single-document operation
	// matches nothing.
	ErrDocumentNotFound = errors.New("mongodb: document not found")

	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("mongodb: duplicate key")

	// ErrClosed is returned when the client has been shut down.
	ErrClosed = errors.New("mongodb: client is closed")
)

type translatedError struct {
	sentinel error
	cause    error
}

func (e *translatedError) Error() string {
	return e.sentinel.Error() + ": " + e.cause.Error()
}

func (e *translatedError) Is(target error) bool { return target == e.sentinel }

func (e *translatedError) Unwrap() error { return e.cause }

// TranslateError maps driver errors onto the sentinels above. The original
// error stays reachable through errors.Is/As. Unknown errors are returned
// unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var te *translatedError
	if errors.As(err, &te) {
		return err
	}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return &translatedError{sentinel: ErrDocumentNotFound, cause: err}
	case mongo.IsDuplicateKeyError(err):
		return &translatedError{sentinel: ErrDuplicateKey, cause: err}
	case errors.Is(err, mongo.ErrClientDisconnected):
		return &translatedError{sentinel: ErrClosed, cause: err}
	case mongo.IsNetworkError(err), mongo.IsTimeout(err):
		return &translatedError{sentinel: ErrConnection, cause: err}
	}
	return err
}

// IsRetryable reports whether retrying the operation may succeed. The core
// never retries on its own.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrConnection) || mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}

// IsNotFound checks if the error is a "document not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound) || errors.Is(err, mongo.ErrNoDocuments)
}

// IsDuplicateKey checks if the error is a unique index violation.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey) || mongo.IsDuplicateKeyError(err)
}

// IsConnectionError checks if the error is a connection error.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}

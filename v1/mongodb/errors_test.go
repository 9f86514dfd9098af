package mongodb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestTranslateError(t *testing.T) {
	assert.NoError(t, TranslateError(nil))

	err := TranslateError(mongo.ErrNoDocuments)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
	assert.True(t, IsNotFound(err))

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	err = TranslateError(dup)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.True(t, IsDuplicateKey(err))
	assert.False(t, IsRetryable(err))

	err = TranslateError(mongo.ErrClientDisconnected)
	assert.ErrorIs(t, err, ErrClosed)

	err = TranslateError(fmt.Errorf("wrapped: %w", context.DeadlineExceeded))
	assert.True(t, IsConnectionError(err))
	assert.True(t, IsRetryable(err))

	plain := errors.New("boom")
	assert.Equal(t, plain, TranslateError(plain))
	assert.False(t, IsRetryable(plain))
}

func TestTranslateErrorIsIdempotent(t *testing.T) {
	once := TranslateError(mongo.ErrNoDocuments)
	assert.Same(t, once, TranslateError(once))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(fmt.Errorf("%w: ping failed", ErrConnection)))
}

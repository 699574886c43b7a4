package db

import (
	"errors"
	"testing"

	"bizadmin/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateError(t *testing.T) {
	assert.NoError(t, TranslateError(nil))
	assert.ErrorIs(t, TranslateError(pgx.ErrNoRows), domain.ErrNotFound)
	assert.ErrorIs(t, TranslateError(&pgconn.PgError{Code: "23505"}), domain.ErrAlreadyExists)
	assert.ErrorIs(t, TranslateError(&pgconn.PgError{Code: "23503"}), domain.ErrInvalidReference)

	for _, code := range []string{"22P02", "23514", "22003", "22001"} {
		err := TranslateError(&pgconn.PgError{Code: code, ColumnName: "anzahl", Message: "integer out of range"})
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr), "code %s: %v", code, err)
		assert.Equal(t, "anzahl", verr.Field)
	}

	other := errors.New("connection reset")
	assert.Equal(t, other, TranslateError(other))
}

func TestClassifyTxError(t *testing.T) {
	assert.ErrorIs(t, classifyTxError(&pgconn.PgError{Code: "22003"}), domain.ErrValidation)
	assert.ErrorIs(t, classifyTxError(domain.NewDuplicateError("a customer named Acme already exists")), domain.ErrAlreadyExists)

	err := classifyTxError(errors.New("connection reset"))
	assert.ErrorIs(t, err, domain.ErrTransaction)
}

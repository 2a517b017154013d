package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsCode(t *testing.T) {
	base := InvalidInput("negative valid_votes")
	wrapped := Wrap(base, "load units")

	assert.Equal(t, CodeInvalidInput, GetCode(wrapped))
	assert.Equal(t, "load units: negative valid_votes", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "x"))
	assert.Nil(t, Wrapf(nil, "x %d", 1))
	assert.Nil(t, WithCode(CodeNotFound, nil))
}

func TestGetCode_ThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("report"))

	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.True(t, IsAppError(err))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestInvalidInputCause(t *testing.T) {
	cause := stderrors.New("duplicate unit_id \"10_1\"")
	err := InvalidInputCause(cause)

	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause.Error(), err.Error())
}

func TestWithCode(t *testing.T) {
	t.Run("recodes an AppError in place", func(t *testing.T) {
		err := WithCode(CodeNotFound, SourceError("a.json", stderrors.New("gone")))
		assert.Equal(t, CodeNotFound, GetCode(err))
		assert.Equal(t, "read a.json: gone", err.Error())
	})

	t.Run("fmt-wrapped AppError becomes the cause", func(t *testing.T) {
		inner := fmt.Errorf("load: %w", InvalidInput("bad row"))
		err := WithCode(CodeSourceError, inner)
		assert.Equal(t, CodeSourceError, GetCode(err))
		assert.Equal(t, "load: bad row", err.Error())
	})
}

func TestWrap_PlainErrorIsInternal(t *testing.T) {
	err := Wrap(stderrors.New("boom"), "run failed")
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Equal(t, "run failed: boom", err.Error())
}

func TestDatabaseError(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := DatabaseError("insert report", cause)
	assert.Equal(t, CodeDatabaseError, GetCode(err))
	assert.Equal(t, "insert report: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestSourceError(t *testing.T) {
	err := SourceError("results.xlsx", stderrors.New("no such file"))
	assert.Equal(t, CodeSourceError, GetCode(err))
	assert.Equal(t, "read results.xlsx: no such file", err.Error())
}

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidPath, "Path does not exist: /nope")
	assert.Equal(t, ErrCodeInvalidPath, err.Code)
	assert.Nil(t, err.Cause)
	assert.Equal(t, "[INVALID_PATH] Path does not exist: /nope", err.Error())
}

func TestWrap(t *testing.T) {
	cause := errors.New("permission denied")
	err := Wrap(ErrCodeReportWrite, "failed to write JSON report", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "[REPORT_WRITE] failed to write JSON report: permission denied", err.Error())
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: errors.New("boom"), want: ""},
		{name: "structured", err: New(ErrCodeNothingToAnalyze, "empty"), want: ErrCodeNothingToAnalyze},
		{
			name: "wrapped structured",
			err:  fmt.Errorf("run: %w", Wrap(ErrCodeUpload, "upload", errors.New("dial"))),
			want: ErrCodeUpload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "", MessageOf(nil))
	assert.Equal(t, "boom", MessageOf(errors.New("boom")))
	assert.Equal(t, "Path is not a directory: /etc/hosts",
		MessageOf(fmt.Errorf("validate: %w", New(ErrCodeInvalidPath, "Path is not a directory: /etc/hosts"))))
}

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHelpers_MatchWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("fetching reports for meeting abc: %w", ErrNoAttendanceReports)
	assert.True(t, IsNoAttendanceReports(wrapped))
	assert.False(t, IsNoOnlineMeeting(wrapped))

	throttled := fmt.Errorf("calendarView page 3: %w", ErrThrottled)
	assert.True(t, IsThrottled(throttled))
	assert.False(t, IsThrottled(ErrNotFound))
}

func TestIsHelpers_DoNotMatchUnrelatedErrors(t *testing.T) {
	err := stderrors.New("connection reset by peer")
	assert.False(t, IsNotFound(err))
	assert.False(t, IsThrottled(err))
	assert.False(t, IsChannelUnavailable(err))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(CodeThrottled))
	assert.True(t, IsRetryable(CodeTransient))
	assert.True(t, IsRetryable(CodeTimeout))
	assert.False(t, IsRetryable(CodeNotFound))
	assert.False(t, IsRetryable(CodeForbidden))
	assert.False(t, IsRetryable(ErrorCode("BOGUS")))
}

func TestErrorCodeRegistry_EveryEntryKeyMatchesCode(t *testing.T) {
	for code, info := range ErrorCodeRegistry {
		assert.Equal(t, code, info.Code)
		assert.NotEmpty(t, info.Description)
	}
}

package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteClassifiesDeadline(t *testing.T) {
	err := Remote(fmt.Errorf("insert activity: %w", context.DeadlineExceeded), "failed to create activity")
	appErr := FromError(err)
	assert.Equal(t, ErrTimeout.Code, appErr.Code)
	assert.Equal(t, http.StatusGatewayTimeout, appErr.Status)
	assert.True(t, IsTimeout(err))
}

func TestRemoteKeepsTypedErrors(t *testing.T) {
	err := Remote(Clone(ErrNotFound, "activity not found"), "failed to load activity")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "activity not found", FromError(err).Message)
}

func TestRemoteDefaultsToRemoteError(t *testing.T) {
	err := Remote(errors.New("connection refused"), "failed to list activities")
	appErr := FromError(err)
	assert.Equal(t, ErrRemote.Code, appErr.Code)
	assert.False(t, IsTimeout(err))
}

func TestWithTimeoutExpires(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Nil(t, FromError(nil))
}

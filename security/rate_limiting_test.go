package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queue-system/internal/status"
)

func TestRateLimiter_AllowUnderLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)

	mock.ExpectIncr("ratelimit:register:1.2.3.4").SetVal(1)
	mock.ExpectExpire("ratelimit:register:1.2.3.4", time.Minute).SetVal(true)

	err := limiter.Allow(context.Background(), "register:1.2.3.4", 10)
	assert.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_ExpireOnlyOnFirstHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)

	mock.ExpectIncr("ratelimit:register:1.2.3.4").SetVal(5)

	err := limiter.Allow(context.Background(), "register:1.2.3.4", 10)
	assert.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)

	mock.ExpectIncr("ratelimit:register:1.2.3.4").SetVal(11)

	err := limiter.Allow(context.Background(), "register:1.2.3.4", 10)
	assert.ErrorIs(t, err, status.ErrRateLimited)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_FailsOpenOnRedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)

	mock.ExpectIncr("ratelimit:register:1.2.3.4").SetErr(errors.New("connection refused"))

	err := limiter.Allow(context.Background(), "register:1.2.3.4", 10)
	assert.NoError(t, err)
}

func TestRateLimiter_NilClientAllows(t *testing.T) {
	limiter := NewRateLimiter(nil)

	assert.NoError(t, limiter.Allow(context.Background(), "register:1.2.3.4", 10))
}

func TestRateLimiter_DisabledLimitAllows(t *testing.T) {
	db, _ := redismock.NewClientMock()
	limiter := NewRateLimiter(db)

	assert.NoError(t, limiter.Allow(context.Background(), "register:1.2.3.4", 0))
}

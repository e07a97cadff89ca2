package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queue-system/config"
	"queue-system/internal/status"
	"queue-system/models"
)

func newTestVerify(queue *QueueService, ttl time.Duration) *VerifyService {
	return NewVerifyService(queue, &config.Config{
		TokenSecret: "test-secret",
		TokenTTL:    ttl,
	})
}

func TestVerifyService_TokenRoundTrip(t *testing.T) {
	queue := newTestQueue()
	verify := newTestVerify(queue, 24*time.Hour)

	entry := mustAdd(t, queue, "Alice", "5551230001")

	token, err := verify.IssueToken(entry)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := verify.VerifyToken(token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, "Q001", got.DisplayNumber)
}

func TestVerifyService_TamperedTokenRejected(t *testing.T) {
	queue := newTestQueue()
	verify := newTestVerify(queue, 24*time.Hour)

	entry := mustAdd(t, queue, "Alice", "5551230001")
	token, err := verify.IssueToken(entry)
	require.NoError(t, err)

	// flip a byte in the MAC half
	tampered := token[:len(token)-1]
	if strings.HasSuffix(token, "0") {
		tampered += "1"
	} else {
		tampered += "0"
	}

	got, err := verify.VerifyToken(tampered)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, status.ErrTokenInvalid)

	_, err = verify.VerifyToken("not-even-a-token")
	assert.ErrorIs(t, err, status.ErrTokenInvalid)

	_, err = verify.VerifyToken("a.b.c")
	assert.ErrorIs(t, err, status.ErrTokenInvalid)
}

func TestVerifyService_SecretMismatchRejected(t *testing.T) {
	queue := newTestQueue()
	verify := newTestVerify(queue, 0)

	entry := mustAdd(t, queue, "Alice", "5551230001")
	token, err := verify.IssueToken(entry)
	require.NoError(t, err)

	other := NewVerifyService(queue, &config.Config{TokenSecret: "different-secret"})
	got, err := other.VerifyToken(token)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, status.ErrTokenInvalid)
}

func TestVerifyService_ExpiredToken(t *testing.T) {
	queue := newTestQueue()
	verify := newTestVerify(queue, time.Minute)

	entry := mustAdd(t, queue, "Alice", "5551230001")
	stale := *entry
	stale.JoinedAt = time.Now().Add(-2 * time.Hour)

	token, err := verify.IssueToken(&stale)
	require.NoError(t, err)

	got, err := verify.VerifyToken(token)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, status.ErrTokenExpired)
}

func TestVerifyService_ZeroTTLSkipsExpiry(t *testing.T) {
	queue := newTestQueue()
	verify := newTestVerify(queue, 0)

	entry := mustAdd(t, queue, "Alice", "5551230001")
	stale := *entry
	stale.JoinedAt = time.Now().Add(-48 * time.Hour)

	token, err := verify.IssueToken(&stale)
	require.NoError(t, err)

	got, err := verify.VerifyToken(token)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestVerifyService_ClaimScoping(t *testing.T) {
	queue := newTestQueue()
	verify := newTestVerify(queue, 0)

	entry := mustAdd(t, queue, "Alice", "5551230001")
	claim := models.VerificationClaim{
		DisplayNumber: entry.DisplayNumber,
		Contact:       entry.Contact,
		Timestamp:     entry.JoinedAt.UnixMilli(),
	}

	// waiting verifies
	assert.NotNil(t, verify.VerifyClaim(claim))

	// called verifies
	require.NotNil(t, queue.CallNext())
	assert.NotNil(t, verify.VerifyClaim(claim))

	// serving never verifies again
	require.NoError(t, queue.MarkAsServing(entry.ID))
	assert.Nil(t, verify.VerifyClaim(claim))

	// terminal statuses never verify despite the matching claim
	require.NoError(t, queue.CompleteService(entry.ID))
	assert.Nil(t, verify.VerifyClaim(claim))
}

func TestVerifyService_ClaimMismatch(t *testing.T) {
	queue := newTestQueue()
	verify := newTestVerify(queue, 0)

	entry := mustAdd(t, queue, "Alice", "5551230001")

	assert.Nil(t, verify.VerifyClaim(models.VerificationClaim{
		DisplayNumber: entry.DisplayNumber,
		Contact:       "5559999999",
	}))
	assert.Nil(t, verify.VerifyClaim(models.VerificationClaim{
		DisplayNumber: "Q099",
		Contact:       entry.Contact,
	}))
}

package services

import (
	"crypto/hmac"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"queue-system/config"
	"queue-system/internal/status"
	"queue-system/models"
	"queue-system/utils"
)

// VerifyService issues and checks queue ticket tokens. A token is the
// serialized claim plus a keyed BLAKE2b MAC, so a presented ticket is a
// capability reference rather than a replayable plain record. The claim
// timestamp is checked against the configured TTL (0 disables the check).
type VerifyService struct {
	queue    *QueueService
	secret   []byte
	tokenTTL time.Duration
}

func NewVerifyService(queue *QueueService, cfg *config.Config) *VerifyService {
	secret := cfg.TokenSecret
	if secret == "" {
		secret = utils.GenerateSecret()
		slog.Warn("TOKEN_SECRET not set, using a per-process secret; tokens will not survive restarts")
	}
	key := []byte(secret)
	if len(key) > 64 {
		// blake2b keys are capped at 64 bytes
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &VerifyService{
		queue:    queue,
		secret:   key,
		tokenTTL: cfg.TokenTTL,
	}
}

// IssueToken serializes and signs a claim for the given entry.
func (s *VerifyService) IssueToken(entry *models.Entry) (string, error) {
	claim := models.VerificationClaim{
		DisplayNumber: entry.DisplayNumber,
		Contact:       entry.Contact,
		Timestamp:     entry.JoinedAt.UnixMilli(),
	}

	payload, err := json.Marshal(claim)
	if err != nil {
		return "", fmt.Errorf("marshal claim: %w", err)
	}

	mac, err := s.sign(payload)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(payload) + "." + hex.EncodeToString(mac), nil
}

// VerifyToken checks the MAC and expiry, then resolves the claim against
// live entries. A valid token for an entry that is no longer waiting or
// called resolves to nil, not an error.
func (s *VerifyService) VerifyToken(token string) (*models.Entry, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return nil, status.ErrTokenInvalid
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, status.ErrTokenInvalid
	}
	presented, err := hex.DecodeString(parts[1])
	if err != nil {
		return nil, status.ErrTokenInvalid
	}

	expected, err := s.sign(payload)
	if err != nil {
		return nil, err
	}
	if !hmac.Equal(presented, expected) {
		return nil, status.ErrTokenInvalid
	}

	var claim models.VerificationClaim
	if err := json.Unmarshal(payload, &claim); err != nil {
		return nil, status.ErrTokenInvalid
	}

	if s.tokenTTL > 0 {
		issued := time.UnixMilli(claim.Timestamp)
		if time.Since(issued) > s.tokenTTL {
			return nil, status.ErrTokenExpired
		}
	}

	return s.VerifyClaim(claim), nil
}

// VerifyClaim looks up an entry matching display number and contact whose
// status is still waiting or called. Returns nil on no match; callers treat
// that as "not found or already handled".
func (s *VerifyService) VerifyClaim(claim models.VerificationClaim) *models.Entry {
	entry := s.queue.FindByDisplayNumber(claim.DisplayNumber)
	if entry == nil || entry.Contact != claim.Contact {
		return nil
	}
	if entry.Status != models.StatusWaiting && entry.Status != models.StatusCalled {
		return nil
	}
	return entry
}

func (s *VerifyService) sign(payload []byte) ([]byte, error) {
	h, err := blake2b.New256(s.secret)
	if err != nil {
		return nil, fmt.Errorf("init mac: %w", err)
	}
	h.Write(payload)
	return h.Sum(nil), nil
}

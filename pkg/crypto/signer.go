package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"payments_ledger/internal/domain"
)

var ErrInvalidSignature = errors.New("invalid signature")

type Signer struct {
	secretKey []byte
	logger    *slog.Logger
}

func NewSigner(secretKey string, logger *slog.Logger) *Signer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

func (s *Signer) Sign(data []byte) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Signer) Verify(data []byte, signature string) error {
	expected := s.Sign(data)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		s.logger.Warn("Signature verification failed",
			slog.String("expected", expected),
			slog.String("received", signature))
		return ErrInvalidSignature
	}
	return nil
}

// SignSnapshot signs the accounts independently of their order and of the
// scale their decimals happen to carry.
func (s *Signer) SignSnapshot(accounts []domain.Account) string {
	return s.Sign(canonicalSnapshot(accounts))
}

func (s *Signer) VerifySnapshot(accounts []domain.Account, signature string) error {
	return s.Verify(canonicalSnapshot(accounts), signature)
}

func canonicalSnapshot(accounts []domain.Account) []byte {
	rows := make([]string, len(accounts))
	for i, a := range accounts {
		rows[i] = fmt.Sprintf("%d:%s:%s:%t", a.Client, a.Available.String(), a.Held.String(), a.Locked)
	}
	slices.Sort(rows)
	return []byte(strings.Join(rows, "\n"))
}

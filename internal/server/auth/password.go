package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72
)

// BcryptHasher hashes and verifies passwords.
type BcryptHasher struct {
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when
// cost is out of range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// ValidatePassword enforces the length bounds for new passwords.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrorValidation, MaxPasswordBytes)
	}
	return nil
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare returns common.ErrInvalidCredentials unless password matches hash.
func (h *BcryptHasher) Compare(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return common.ErrInvalidCredentials
	}
	return nil
}

// CompareDummy spends about as long as Compare against a random hash. It is
// called when no account matched so that both failure paths take similar
// time.
func (h *BcryptHasher) CompareDummy(password string) {
	h.dummyOnce.Do(func() {
		secret, err := common.MakeRandHexString(16)
		if err != nil {
			secret = "dummy-password-value"
		}
		h.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
}

package infrastructure

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/DRSN-tech/respondr-media/internal/domain"
	"github.com/DRSN-tech/respondr-media/pkg/e"
)

const (
	nonceAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	nonceLength   = 6
)

// RandSource — источник равномерно распределённых целых в [0, n).
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// KeyGenerator строит ключи вида incidents/{owner}/{subject}/{unixMillis}_{nonce6}.{ext}.
// Часы и источник случайности внедряются, чтобы ключи были воспроизводимы в тестах.
type KeyGenerator struct {
	now func() time.Time
	rnd RandSource
}

func NewKeyGenerator() *KeyGenerator {
	return &KeyGenerator{now: time.Now, rnd: globalRand{}}
}

func NewKeyGeneratorWith(now func() time.Time, rnd RandSource) *KeyGenerator {
	return &KeyGenerator{now: now, rnd: rnd}
}

// ValidateContext проверяет, что владелец и объект заданы.
func ValidateContext(ownerID, subjectID string) error {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(subjectID) == "" {
		return e.Wrap(fmt.Sprintf("owner=%q subject=%q", ownerID, subjectID), e.ErrMissingUploadContext)
	}

	return nil
}

// Build возвращает ключ хранения или e.ErrMissingUploadContext при пустом владельце/объекте.
func (g *KeyGenerator) Build(ownerID, subjectID, mimeType string) (string, error) {
	if err := ValidateContext(ownerID, subjectID); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s/%s/%d_%s.%s",
		domain.StorageKeyPrefix,
		ownerID,
		subjectID,
		g.now().UnixMilli(),
		g.nonce(),
		ExtensionForMIME(mimeType),
	), nil
}

func (g *KeyGenerator) nonce() string {
	var b strings.Builder
	b.Grow(nonceLength)
	for range nonceLength {
		b.WriteByte(nonceAlphabet[g.rnd.IntN(len(nonceAlphabet))])
	}

	return b.String()
}

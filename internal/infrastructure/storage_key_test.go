package infrastructure

import (
	"regexp"
	"testing"
	"time"

	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyPattern = regexp.MustCompile(`^incidents/([^/]+)/([^/]+)/(\d{13})_([0-9a-z]{6})\.(jpg|webp)$`)

// sequenceRand отдаёт заранее заданные значения по кругу.
type sequenceRand struct {
	values []int
	i      int
}

func (s *sequenceRand) IntN(n int) int {
	v := s.values[s.i%len(s.values)] % n
	s.i++
	return v
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestKeyGeneratorDeterministicFormat(t *testing.T) {
	g := NewKeyGeneratorWith(fixedClock(1718000000123), &sequenceRand{values: []int{0, 10, 35, 1, 2, 3}})

	key, err := g.Build("uid-42", "incident-7", "image/webp")
	require.NoError(t, err)

	assert.Equal(t, "incidents/uid-42/incident-7/1718000000123_0az123.webp", key)
}

func TestKeyGeneratorMatchesPattern(t *testing.T) {
	g := NewKeyGenerator()

	key, err := g.Build("owner", "subject", "image/webp")
	require.NoError(t, err)

	m := keyPattern.FindStringSubmatch(key)
	require.NotNil(t, m, key)
	assert.Equal(t, "owner", m[1])
	assert.Equal(t, "subject", m[2])
	assert.Equal(t, "webp", m[5])
}

func TestKeyGeneratorExtensionMapping(t *testing.T) {
	g := NewKeyGeneratorWith(fixedClock(1718000000123), &sequenceRand{values: []int{5}})

	cases := map[string]string{
		"image/jpeg": "jpg",
		"image/webp": "webp",
		"image/png":  "webp",
		"":           "webp",
	}
	for mime, ext := range cases {
		key, err := g.Build("o", "s", mime)
		require.NoError(t, err)
		assert.Equal(t, "incidents/o/s/1718000000123_555555."+ext, key, mime)
	}
}

func TestKeyGeneratorUniqueness(t *testing.T) {
	sameNonce := &sequenceRand{values: []int{7}}

	k1, err := NewKeyGeneratorWith(fixedClock(1718000000000), sameNonce).Build("o", "s", "image/webp")
	require.NoError(t, err)
	k2, err := NewKeyGeneratorWith(fixedClock(1718000000001), sameNonce).Build("o", "s", "image/webp")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2, "different milliseconds")

	g := NewKeyGeneratorWith(fixedClock(1718000000000), &sequenceRand{values: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}})
	k3, err := g.Build("o", "s", "image/webp")
	require.NoError(t, err)
	k4, err := g.Build("o", "s", "image/webp")
	require.NoError(t, err)
	assert.NotEqual(t, k3, k4, "same millisecond, different nonces")

	seen := make(map[string]struct{})
	real := NewKeyGenerator()
	for range 1000 {
		k, err := real.Build("o", "s", "image/webp")
		require.NoError(t, err)
		seen[k] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}

func TestKeyGeneratorMissingContext(t *testing.T) {
	g := NewKeyGenerator()

	_, err := g.Build("", "subject", "image/webp")
	require.ErrorIs(t, err, e.ErrMissingUploadContext)

	_, err = g.Build("owner", "", "image/webp")
	require.ErrorIs(t, err, e.ErrMissingUploadContext)

	_, err = g.Build("  ", "subject", "image/webp")
	require.ErrorIs(t, err, e.ErrMissingUploadContext)
}

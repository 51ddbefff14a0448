package codec

import (
	"testing"
	"time"

	"github.com/sacovo/vectord/pkg/vdberr"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	tok, err := NewToken("correct-secret", TokenConfig{Iterations: 1000})
	require.NoError(t, err)

	sealed, err := tok.Seal([]byte("hello index"))
	require.NoError(t, err)

	opened, err := tok.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, []byte("hello index"), opened)
}

func TestOpenWithWrongSecretFails(t *testing.T) {
	a, err := NewToken("secret-a", TokenConfig{Iterations: 1000})
	require.NoError(t, err)
	b, err := NewToken("secret-b", TokenConfig{Iterations: 1000})
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("payload"))
	require.NoError(t, err)

	var invalidToken *vdberr.InvalidToken
	_, err = b.Open(sealed)
	require.ErrorAs(t, err, &invalidToken)
}

func TestOpenRejectsTamperedFrame(t *testing.T) {
	tok, err := NewToken("secret", TokenConfig{Iterations: 1000})
	require.NoError(t, err)

	sealed, err := tok.Seal([]byte("payload"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xFF

	_, err = tok.Open(sealed)
	require.Error(t, err)
}

func TestOpenRejectsExpiredFrame(t *testing.T) {
	now := time.Now()
	tok, err := NewToken("secret", TokenConfig{Iterations: 1000, TTL: time.Second})
	require.NoError(t, err)
	tok.now = func() time.Time { return now }

	sealed, err := tok.Seal([]byte("payload"))
	require.NoError(t, err)

	tok.now = func() time.Time { return now.Add(2 * time.Second) }
	_, err = tok.Open(sealed)
	require.Error(t, err)
}

func TestOpenRejectsShortFrame(t *testing.T) {
	tok, err := NewToken("secret", TokenConfig{Iterations: 1000})
	require.NoError(t, err)

	_, err = tok.Open([]byte{1, 2, 3})
	require.Error(t, err)
}

package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCodec(t *testing.T, clk *clock) *Codec {
	t.Helper()
	c, err := NewCodec("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour, WithClock(clk.now))
	require.NoError(t, err)
	return c
}

func TestNewCodec_Validation(t *testing.T) {
	tests := []struct {
		name            string
		access, refresh string
		accessTTL       time.Duration
		wantErr         bool
	}{
		{name: "ok", access: "a", refresh: "r"},
		{name: "empty access", access: "", refresh: "r", wantErr: true},
		{name: "empty refresh", access: "a", refresh: "", wantErr: true},
		{name: "equal secrets", access: "same", refresh: "same", wantErr: true},
		{name: "negative ttl", access: "a", refresh: "r", accessTTL: -time.Second, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCodec(tt.access, tt.refresh, tt.accessTTL, 0)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultAccessTokenTTL, c.TTL(KindAccess))
			assert.Equal(t, DefaultRefreshTokenTTL, c.TTL(KindRefresh))
		})
	}
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	clk := &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)

	for _, kind := range []Kind{KindAccess, KindRefresh} {
		tok, exp, err := c.Issue(kind, "account-42")
		require.NoError(t, err)
		assert.Equal(t, clk.t.Add(c.TTL(kind)), exp)

		id, err := c.Verify(kind, tok)
		require.NoError(t, err)
		assert.Equal(t, "account-42", id)
	}
}

func TestIssue_TokensAreUniqueWithinSameSecond(t *testing.T) {
	clk := &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)

	t1, _, err := c.Issue(KindRefresh, "u")
	require.NoError(t, err)
	t2, _, err := c.Issue(KindRefresh, "u")
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}

func TestVerify_Expired(t *testing.T) {
	clk := &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)

	tok, _, err := c.Issue(KindAccess, "u")
	require.NoError(t, err)

	clk.t = clk.t.Add(15*time.Minute + time.Second)
	_, err = c.Verify(KindAccess, tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestVerify_WrongSignature(t *testing.T) {
	clk := &clock{t: time.Now()}
	c := newTestCodec(t, clk)
	other, err := NewCodec("other-access", "other-refresh", 0, 0, WithClock(clk.now))
	require.NoError(t, err)

	tok, _, err := other.Issue(KindAccess, "u")
	require.NoError(t, err)

	_, err = c.Verify(KindAccess, tok)
	assert.ErrorIs(t, err, common.ErrInvalidSignature)
}

func TestVerify_KindsAreNotInterchangeable(t *testing.T) {
	clk := &clock{t: time.Now()}
	c := newTestCodec(t, clk)

	refresh, _, err := c.Issue(KindRefresh, "u")
	require.NoError(t, err)
	_, err = c.Verify(KindAccess, refresh)
	assert.Error(t, err)

	// Correct key, wrong kind claim.
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u",
			ExpiresAt: jwt.NewNumericDate(clk.t.Add(time.Hour)),
		},
		Kind: KindRefresh,
	})
	s, err := forged.SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = c.Verify(KindAccess, s)
	assert.ErrorIs(t, err, common.ErrMalformedToken)
}

func TestVerify_MissingClaims(t *testing.T) {
	clk := &clock{t: time.Now()}
	c := newTestCodec(t, clk)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u"},
		Kind:             KindAccess,
	})
	s, err := noExp.SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = c.Verify(KindAccess, s)
	assert.ErrorIs(t, err, common.ErrMalformedToken)

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clk.t.Add(time.Hour))},
		Kind:             KindAccess,
	})
	s, err = noSub.SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = c.Verify(KindAccess, s)
	assert.ErrorIs(t, err, common.ErrMalformedToken)
}

func TestVerify_OtherAlgorithmRejected(t *testing.T) {
	clk := &clock{t: time.Now()}
	c := newTestCodec(t, clk)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u",
			ExpiresAt: jwt.NewNumericDate(clk.t.Add(time.Hour)),
		},
		Kind: KindAccess,
	})
	s, err := tok.SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = c.Verify(KindAccess, s)
	assert.Error(t, err)
}

func TestVerify_Malformed(t *testing.T) {
	c := newTestCodec(t, &clock{t: time.Now()})

	for _, s := range []string{"", "not.a.jwt", "abc"} {
		_, err := c.Verify(KindAccess, s)
		assert.ErrorIs(t, err, common.ErrMalformedToken, s)
	}
	_, err := c.Verify(Kind("other"), "x")
	assert.ErrorIs(t, err, common.ErrMalformedToken)

	_, _, err = c.Issue(Kind("other"), "u")
	assert.Error(t, err)
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	assert.True(t, Anonymous().IsAnonymous())
	assert.True(t, User("   ").IsAnonymous())
	assert.Equal(t, "kid-1", User(" kid-1 ").UserID)

	ctx := WithIdentity(context.Background(), User("kid-2"))
	assert.Equal(t, "kid-2", FromContext(ctx).UserID)
	assert.True(t, FromContext(context.Background()).IsAnonymous())
}

func TestAdvisory_Once(t *testing.T) {
	var a Advisory
	assert.Equal(t, AdvisoryMessage, a.Take())
	assert.Empty(t, a.Take())

	var nilAdvisory *Advisory
	assert.Empty(t, nilAdvisory.Take())
}

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("s3cret", "mathdrill")
	tok, err := v.Issue("kid-1", time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "kid-1", id.UserID)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier("s3cret", "")
	other := NewVerifier("different", "")

	forged, err := other.Issue("kid-1", time.Hour)
	require.NoError(t, err)

	expired := NewVerifier("s3cret", "")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue("kid-1", time.Hour)
	require.NoError(t, err)

	blank, err := v.Issue("", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not.a.token", ErrInvalidToken},
		{"wrong key", forged, ErrInvalidToken},
		{"expired", old, ErrInvalidToken},
		{"no subject", blank, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Verify(tt.token)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Verify() err = %v, want %v", err, tt.want)
			}
			assert.True(t, id.IsAnonymous())
		})
	}
}

func TestVerifier_Disabled(t *testing.T) {
	v := NewVerifier("", "")
	assert.False(t, v.Enabled())
	_, err := v.Verify("x")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer abc"))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken(""))
}

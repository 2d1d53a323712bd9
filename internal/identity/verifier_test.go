package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("test-secret", "https://id.test")

	assertion, err := v.Sign(Identity{
		Subject:    "sub-123",
		Email:      "pat@example.org",
		GivenName:  "Pat",
		FamilyName: "Example",
	}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(assertion)
	require.NoError(t, err)
	require.Equal(t, "sub-123", id.Subject)
	require.Equal(t, "pat@example.org", id.Email)
	require.Equal(t, "Pat", id.GivenName)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	other := NewVerifier("test-secret", "https://evil.test")
	assertion, err := other.Sign(Identity{Subject: "sub-123", Email: "pat@example.org"}, time.Hour)
	require.NoError(t, err)

	v := NewVerifier("test-secret", "https://id.test")
	_, err = v.Verify(assertion)
	require.ErrorIs(t, err, ErrInvalidAssertion)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	other := NewVerifier("other-secret", "https://id.test")
	assertion, err := other.Sign(Identity{Subject: "sub-123", Email: "pat@example.org"}, time.Hour)
	require.NoError(t, err)

	v := NewVerifier("test-secret", "https://id.test")
	_, err = v.Verify(assertion)
	require.ErrorIs(t, err, ErrInvalidAssertion)
}

func TestVerifyRejectsExpired(t *testing.T) {
	v := NewVerifier("test-secret", "https://id.test")
	assertion, err := v.Sign(Identity{Subject: "sub-123", Email: "pat@example.org"}, -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(assertion)
	require.ErrorIs(t, err, ErrInvalidAssertion)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	v := NewVerifier("test-secret", "https://id.test")
	assertion, err := v.Sign(Identity{Email: "pat@example.org"}, time.Hour)
	require.NoError(t, err)

	_, err = v.Verify(assertion)
	require.ErrorIs(t, err, ErrInvalidAssertion)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	v := NewVerifier("test-secret", "https://id.test")
	_, err := v.Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidAssertion)
}

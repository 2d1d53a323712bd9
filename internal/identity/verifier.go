package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidAssertion is returned for assertions that are malformed,
// expired, or not signed by the trusted identity provider.
var ErrInvalidAssertion = errors.New("invalid identity assertion")

// Identity is the verified profile carried by a provider assertion.
type Identity struct {
	Subject    string
	Email      string
	GivenName  string
	FamilyName string
	Picture    string
}

type assertionClaims struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
	jwt.RegisteredClaims
}

// Verifier validates signed assertions from the upstream identity provider.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses and validates an assertion and returns the identity it carries.
func (v *Verifier) Verify(assertion string) (*Identity, error) {
	if strings.TrimSpace(assertion) == "" {
		return nil, ErrInvalidAssertion
	}

	token, err := jwt.ParseWithClaims(assertion, &assertionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssertion, err)
	}

	claims, ok := token.Claims.(*assertionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidAssertion
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.Email) == "" {
		return nil, ErrInvalidAssertion
	}

	return &Identity{
		Subject:    claims.Subject,
		Email:      claims.Email,
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
		Picture:    claims.Picture,
	}, nil
}

// Sign produces an assertion for the given identity. Used by local
// development tooling and tests.
func (v *Verifier) Sign(id Identity, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := assertionClaims{
		Email:      id.Email,
		GivenName:  id.GivenName,
		FamilyName: id.FamilyName,
		Picture:    id.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

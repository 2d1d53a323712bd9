package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/steeplehq/steeple/internal/account/domain"
	"github.com/steeplehq/steeple/internal/clock"
	"github.com/steeplehq/steeple/internal/identity"
	"go.uber.org/zap"
)

const (
	sessionTokenBytes = 32
	sessionTTL        = 7 * 24 * time.Hour
)

type Service struct {
	log         *zap.Logger
	verifier    *identity.Verifier
	repo        domain.Repository
	sessionRepo domain.SessionRepository
	genID       *snowflake.Node
	clock       clock.Clock
}

func New(log *zap.Logger, verifier *identity.Verifier, repo domain.Repository, sessionRepo domain.SessionRepository, genID *snowflake.Node, clk clock.Clock) domain.Service {
	return &Service{
		log:         log.Named("account.service"),
		verifier:    verifier,
		repo:        repo,
		sessionRepo: sessionRepo,
		genID:       genID,
		clock:       clk,
	}
}

func (s *Service) ExchangeAssertion(ctx context.Context, req domain.ExchangeRequest) (*domain.LoginResult, error) {
	id, err := s.verifier.Verify(req.Assertion)
	if err != nil {
		return nil, err
	}

	provider := strings.TrimSpace(req.Provider)
	if provider == "" {
		provider = "oidc"
	}

	account, err := s.resolveAccount(ctx, provider, id)
	if err != nil {
		return nil, err
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &domain.Session{
		ID:               s.genID.Generate(),
		AccountID:        account.ID,
		SessionTokenHash: hashToken(rawToken),
		UserAgent:        strings.TrimSpace(req.UserAgent),
		IPAddress:        strings.TrimSpace(req.IPAddress),
		ExpiresAt:        now.Add(sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &domain.LoginResult{
		Account:   account,
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
		SessionID: session.ID,
	}, nil
}

// resolveAccount maps a verified identity onto an account: by subject
// first, then by email for accounts provisioned before their first
// sign-in, creating a fresh member account otherwise.
func (s *Service) resolveAccount(ctx context.Context, provider string, id *identity.Identity) (*domain.Account, error) {
	now := s.clock.Now()

	account, err := s.repo.FindBySubject(ctx, provider, id.Subject)
	if err == nil {
		if err := s.repo.UpdateFields(ctx, account.ID, profileFields(id, now)); err != nil {
			return nil, err
		}
		return s.repo.FindByID(ctx, account.ID)
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	account, err = s.repo.FindByEmail(ctx, id.Email)
	if err == nil {
		fields := profileFields(id, now)
		fields["external_id"] = id.Subject
		fields["provider"] = provider
		if err := s.repo.UpdateFields(ctx, account.ID, fields); err != nil {
			return nil, err
		}
		return s.repo.FindByID(ctx, account.ID)
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	account = &domain.Account{
		ID:         s.genID.Generate(),
		ExternalID: id.Subject,
		Provider:   provider,
		FirstName:  id.GivenName,
		LastName:   id.FamilyName,
		Email:      id.Email,
		AvatarURL:  id.Picture,
		Role:       domain.RoleMember,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info("account provisioned",
		zap.String("account_id", account.ID.String()),
		zap.String("email", account.Email),
	)
	return account, nil
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Session, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}

	now := s.clock.Now()
	if session.RevokedAt != nil {
		return nil, domain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	if err := s.sessionRepo.UpdateLastSeen(ctx, session.ID, now); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return err
	}

	return s.sessionRepo.RevokeSession(ctx, session.ID, s.clock.Now())
}

func (s *Service) FindByID(ctx context.Context, id snowflake.ID) (*domain.Account, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]domain.Account, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

func profileFields(id *identity.Identity, now time.Time) map[string]any {
	return map[string]any{
		"first_name": id.GivenName,
		"last_name":  id.FamilyName,
		"email":      id.Email,
		"avatar_url": id.Picture,
		"updated_at": now,
	}
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

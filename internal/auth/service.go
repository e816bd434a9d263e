package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/your-org/faceid/internal/models"
)

// CredentialStore looks up identities by login credentials.
// Returns nil, nil when no identity matches the email.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
}

// Service handles credential login for the transport layer. Face
// matching never goes through here.
type Service struct {
	store  CredentialStore
	issuer *TokenIssuer
}

func NewService(store CredentialStore, issuer *TokenIssuer) *Service {
	return &Service{store: store, issuer: issuer}
}

// Login verifies email+password and returns a signed token. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.Identity, error) {
	if email == "" || password == "" {
		return "", nil, models.ErrInvalidCredentials
	}

	ident, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if ident == nil || ident.PasswordHash == "" {
		return "", nil, models.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte(password)) != nil {
		return "", nil, models.ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(ident)
	if err != nil {
		return "", nil, err
	}
	return token, ident, nil
}

// HashPassword produces the stored credential hash for registration.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

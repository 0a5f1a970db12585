package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/haven-care/carehome-api/internal/models"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
)

type authRepoStub struct {
	users    map[string]*models.User
	byEmail  map[string]*models.User
	tokens   map[string]*models.RefreshToken
	revoked  []string
	audits   []models.AuditLog
	password string
}

func newAuthRepoStub() *authRepoStub {
	return &authRepoStub{
		users:   map[string]*models.User{},
		byEmail: map[string]*models.User{},
		tokens:  map[string]*models.RefreshToken{},
	}
}

func (s *authRepoStub) addUser(user *models.User, password string) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user.PasswordHash = string(hash)
	s.users[user.ID] = user
	s.byEmail[user.Email] = user
}

func (s *authRepoStub) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *authRepoStub) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *authRepoStub) UpdateLastLogin(context.Context, string, time.Time) error { return nil }

func (s *authRepoStub) UpdatePassword(_ context.Context, id, hash string, _ time.Time) error {
	s.users[id].PasswordHash = hash
	s.password = hash
	return nil
}

func (s *authRepoStub) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	s.revoked = append(s.revoked, userID)
	for _, tok := range s.tokens {
		if tok.UserID == userID {
			tok.Revoked = true
		}
	}
	return nil
}

func (s *authRepoStub) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	s.tokens[token.Token] = token
	return nil
}

func (s *authRepoStub) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := s.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (s *authRepoStub) RevokeRefreshToken(_ context.Context, id string, _ time.Time) error {
	for _, tok := range s.tokens {
		if tok.ID == id {
			tok.Revoked = true
		}
	}
	return nil
}

func (s *authRepoStub) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	s.audits = append(s.audits, *log)
	return nil
}

func newAuthService(repo *authRepoStub) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "carehome-api",
	})
}

func TestAuthServiceLoginIssuesTokens(t *testing.T) {
	repo := newAuthRepoStub()
	companyID := "co-1"
	repo.addUser(&models.User{ID: "u-1", Email: "mgr@example.com", Role: models.RoleHomeManager, CompanyID: &companyID, Active: true}, "secret-pass")

	svc := newAuthService(repo)
	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "mgr@example.com", Password: "secret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "u-1", resp.User.ID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleHomeManager, claims.Role)
	require.NotNil(t, claims.CompanyID)
	assert.Equal(t, "co-1", *claims.CompanyID)

	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionLogin, repo.audits[0].Action)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{ID: "u-1", Email: "mgr@example.com", Role: models.RoleStaff, Active: true}, "secret-pass")

	svc := newAuthService(repo)
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "mgr@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{ID: "u-1", Email: "mgr@example.com", Role: models.RoleStaff, Active: false}, "secret-pass")

	svc := newAuthService(repo)
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "mgr@example.com", Password: "secret-pass"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{ID: "u-1", Email: "mgr@example.com", Role: models.RoleStaff, Active: true}, "secret-pass")

	svc := newAuthService(repo)
	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "mgr@example.com", Password: "secret-pass"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked and cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePasswordRevokesSessions(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{ID: "u-1", Email: "mgr@example.com", Role: models.RoleStaff, Active: true}, "old-pass-123")

	svc := newAuthService(repo)
	err := svc.ChangePassword(context.Background(), "u-1", models.ChangePasswordRequest{
		OldPassword: "old-pass-123",
		NewPassword: "new-pass-456",
	})
	require.NoError(t, err)
	assert.Contains(t, repo.revoked, "u-1")

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "mgr@example.com", Password: "new-pass-456"})
	require.NoError(t, err)
}

func TestAuthServiceValidateTokenRejectsTampering(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{ID: "u-1", Email: "mgr@example.com", Role: models.RoleStaff, Active: true}, "secret-pass")

	svc := newAuthService(repo)
	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "mgr@example.com", Password: "secret-pass"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(login.AccessToken + "x")
	require.Error(t, err)
}

// internal/services/auth_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scpnet/scp-backend/internal/config"
	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
	"github.com/scpnet/scp-backend/internal/utils"
)

type AuthService struct {
	store   *repository.Store
	cfg     *config.Config
	revoker TokenRevoker
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string      `json:"email" validate:"required,email,max=255"`
	Password string      `json:"password" validate:"required,password"`
	Role     models.Role `json:"role,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

// NewAuthService builds the service; revoker may be nil, in which case
// logout only acknowledges.
func NewAuthService(store *repository.Store, cfg *config.Config, revoker TokenRevoker) *AuthService {
	return &AuthService{
		store:   store,
		cfg:     cfg,
		revoker: revoker,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a CONSUMER or SUPPLIER_OWNER account. Staff accounts
// are created through the staff registry only.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	if req.Role == "" {
		req.Role = models.RoleConsumer
	}
	if req.Role != models.RoleConsumer && req.Role != models.RoleSupplierOwner {
		return nil, ErrBadRequest(i18n.KeyAuthRoleNotAllowed, req.Role)
	}

	existing, err := s.store.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if existing != nil {
		return nil, ErrConflict(i18n.KeyAuthEmailTaken)
	}

	user := &models.User{
		Email: req.Email,
		Role:  req.Role,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.store.Users.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, ErrConflict(i18n.KeyAuthEmailTaken)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")
	return s.issueTokens(user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	user, err := s.store.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil || user.CheckPassword(req.Password) != nil {
		return nil, ErrUnauthenticated(i18n.KeyAuthInvalidCredentials)
	}

	return s.issueTokens(user)
}

func (s *AuthService) Refresh(ctx context.Context, req *RefreshRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	claims, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, ErrUnauthenticated(i18n.KeyAuthInvalidToken)
	}
	if revoked, err := s.IsRevoked(ctx, claims.ID); err != nil {
		return nil, err
	} else if revoked {
		return nil, ErrUnauthenticated(i18n.KeyAuthInvalidToken)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrUnauthenticated(i18n.KeyAuthInvalidToken)
	}
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		return nil, ErrUnauthenticated(i18n.KeyAuthInvalidToken)
	}

	// a refresh token is single use; of two concurrent refreshes only the
	// one that claims the jti gets new tokens
	if s.revoker != nil {
		claimed, err := s.revoker.Revoke(ctx, claims.ID, claims.RemainingTTL())
		if err != nil {
			return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
		}
		if !claimed {
			return nil, ErrUnauthenticated(i18n.KeyAuthInvalidToken)
		}
	}
	return s.issueTokens(user)
}

// Logout revokes the presented access token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *utils.JWTClaims) {
	s.revoke(ctx, claims)
}

func (s *AuthService) revoke(ctx context.Context, claims *utils.JWTClaims) {
	if s.revoker == nil || claims == nil || claims.ID == "" {
		return
	}
	if _, err := s.revoker.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		logrus.WithError(err).WithField("user_id", claims.UserID).Warn("Failed to revoke token")
	}
}

func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s.revoker == nil || jti == "" {
		return false, nil
	}
	revoked, err := s.revoker.IsRevoked(ctx, jti)
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return revoked, nil
}

type MeResponse struct {
	User       *models.User `json:"user"`
	SupplierID *uuid.UUID   `json:"supplier_id"`
}

// Me describes the caller together with the supplier it acts for, if any.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*MeResponse, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated(i18n.KeyAuthInvalidToken)
	}

	var supplierID *uuid.UUID
	if user.Role.IsSupplierSide() {
		if supplierID, err = ResolveSupplierFor(ctx, s.store, user.ID); err != nil {
			return nil, err
		}
	}
	return &MeResponse{User: user, SupplierID: supplierID}, nil
}

// GetUserByID returns the account or nil when it no longer exists.
func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Email, string(user.Role), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600, // Convert hours to seconds
	}, nil
}

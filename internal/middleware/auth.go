// internal/middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scpnet/scp-backend/internal/access"
	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/utils"
)

const (
	ctxClaims    = "claims"
	ctxPrincipal = "principal"
)

// Authenticator resolves a verified token to a live account.
type Authenticator interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthRequired accepts a bearer access token that is neither revoked nor
// issued to an account that has since been deleted.
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(strings.TrimSpace(parts[1]))
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		revoked, err := auth.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			logrus.WithError(err).Error("Token revocation check failed")
			utils.InternalErrorResponse(c, "")
			c.Abort()
			return
		}
		if revoked {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}
		user, err := auth.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			logrus.WithError(err).Error("Failed to load authenticated user")
			utils.InternalErrorResponse(c, "")
			c.Abort()
			return
		}
		if user == nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		// the stored role wins over the token's, staff role updates apply at once
		principal, err := access.FromUser(user)
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		c.Set(ctxClaims, claims)
		c.Set(ctxPrincipal, principal)
		c.Set("current_user", user)
		c.Set("user_id", user.ID.String())
		c.Set("role", string(user.Role))
		c.Next()
	}
}

// RequireRoles admits callers whose role is in the set and answers a
// structured 403 otherwise. It runs after AuthRequired.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}
		if !allowed[principal.Role()] {
			lang := utils.GetLangFromContext(c)
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAuthRoleForbidden, principal.Role()), gin.H{
				"role":     principal.Role(),
				"required": roles,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SupplierRoles is every role acting for a supplier.
var SupplierRoles = []models.Role{models.RoleSupplierOwner, models.RoleSupplierManager, models.RoleSupplierSales}

func CurrentPrincipal(c *gin.Context) (access.Principal, bool) {
	v, exists := c.Get(ctxPrincipal)
	if !exists {
		return nil, false
	}
	p, ok := v.(access.Principal)
	return p, ok
}

func CurrentClaims(c *gin.Context) (*utils.JWTClaims, bool) {
	v, exists := c.Get(ctxClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*utils.JWTClaims)
	return claims, ok
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get("current_user")
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

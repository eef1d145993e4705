package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scpnet/scp-backend/internal/access"
	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/middleware"
	"github.com/scpnet/scp-backend/internal/services"
	"github.com/scpnet/scp-backend/internal/utils"
)

// respondError is the single place a service error kind becomes an HTTP
// status. Anything that is not a *services.Error is an internal failure.
func respondError(c *gin.Context, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Request failed")
		_ = c.Error(err)
		utils.InternalErrorResponse(c, "")
		return
	}

	message := se.Message(utils.GetLangFromContext(c))
	var details interface{}
	if len(se.Details) > 0 {
		details = se.Details
	}

	switch se.Kind {
	case services.KindUnauthenticated:
		utils.UnauthorizedResponse(c, message)
	case services.KindForbidden:
		utils.ForbiddenResponse(c, message, details)
	case services.KindNotFound:
		utils.NotFoundResponse(c, message)
	case services.KindConflict:
		utils.ConflictResponse(c, message, details)
	case services.KindInvalidTransition:
		utils.InvalidTransitionResponse(c, message, details)
	default:
		utils.BadRequestResponse(c, message, details)
	}
}

// principal returns the authenticated caller or answers 401.
func principal(c *gin.Context) (access.Principal, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return nil, false
	}
	return p, true
}

func parseID(c *gin.Context, param, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyInvalidID, name), nil)
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

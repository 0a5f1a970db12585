package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/internal/middleware"
	"github.com/haven-care/carehome-api/internal/models"
)

// scopeBuilder derives roster scopes and tenancy from the caller's claims.
type scopeBuilder interface {
	Build(ctx context.Context, claims *models.JWTClaims, companyID string, forWrite bool) (dto.RosterScope, error)
	CompanyFor(claims *models.JWTClaims, companyID string) (string, error)
}

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

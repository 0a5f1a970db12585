package handler

import (
	"context"

	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/internal/models"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type fakeScopes struct {
	scope      dto.RosterScope
	buildErr   error
	companyID  string
	companyErr error
	lastWrite  bool
}

func (f *fakeScopes) Build(_ context.Context, _ *models.JWTClaims, _ string, forWrite bool) (dto.RosterScope, error) {
	f.lastWrite = forWrite
	if f.buildErr != nil {
		return dto.RosterScope{}, f.buildErr
	}
	return f.scope, nil
}

func (f *fakeScopes) CompanyFor(_ *models.JWTClaims, companyID string) (string, error) {
	if f.companyErr != nil {
		return "", f.companyErr
	}
	if f.companyID != "" {
		return f.companyID, nil
	}
	return companyID, nil
}

func managerClaims() *models.JWTClaims {
	companyID := "co-1"
	return &models.JWTClaims{UserID: "mgr-1", Role: models.RoleHomeManager, CompanyID: &companyID}
}

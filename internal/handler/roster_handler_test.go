package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/internal/middleware"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
)

type fakeRosterSrv struct {
	entries   []dto.RosterEntry
	err       error
	lastScope dto.RosterScope
}

func (f *fakeRosterSrv) Resolve(_ context.Context, scope dto.RosterScope) ([]dto.RosterEntry, error) {
	f.lastScope = scope
	return f.entries, f.err
}

func TestRosterHandlerListSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRosterSrv{entries: []dto.RosterEntry{{PersonID: "p-1", DisplayName: "Alice"}}}
	scopes := &fakeScopes{companyID: "co-1", scope: dto.RosterScope{Kind: dto.ScopeManagedHomes}}
	handler := NewRosterHandler(srv, scopes)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/roster", nil)
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.ScopeManagedHomes, srv.lastScope.Kind)
	assert.False(t, scopes.lastWrite)
}

func TestRosterHandlerListScopeFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRosterHandler(&fakeRosterSrv{}, &fakeScopes{
		companyID: "co-1",
		buildErr:  appErrors.ErrScopeResolution,
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/roster", nil)
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.List(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

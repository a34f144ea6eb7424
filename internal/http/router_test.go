package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lattice-backend/internal/curriculum"
	httpH "github.com/yungbote/lattice-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lattice-backend/internal/http/middleware"
	"github.com/yungbote/lattice-backend/internal/observability"
	"github.com/yungbote/lattice-backend/internal/platform/ctxutil"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

type staticIdentity struct{ userID uuid.UUID }

func (s staticIdentity) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	if token != "ok" {
		return ctx, errors.New("bad token")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: s.userID}), nil
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	catalog := curriculum.FromEntries([]curriculum.Entry{{Slug: "two-sum", Title: "Two Sum", NormalizedTitle: "two sum"}})
	r := NewRouter(RouterConfig{
		Log:               logger.Nop(),
		Metrics:           observability.NewMetrics(),
		AuthMiddleware:    httpMW.NewAuthMiddleware(logger.Nop(), staticIdentity{userID: uuid.New()}),
		CurriculumHandler: httpH.NewCurriculumHandler(catalog),
		HealthHandler:     httpH.NewHealthHandler(nil),
	})

	serve := func(path, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if auth != "" {
			req.Header.Set("Authorization", "Bearer "+auth)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := serve("/healthcheck", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve("/api/curriculum", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve("/api/curriculum", "nope").Code)

	rec = serve("/api/curriculum", "ok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Two Sum")
	assert.NotEmpty(t, rec.Header().Get(httpMW.HeaderRequestID))

	rec = serve("/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/curriculum")
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/app/models/dto"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
	"github.com/yigit/enrollment/internal/pkg/auth"
)

func TestErrorResponseMapping(t *testing.T) {
	cases := []struct {
		err       error
		status    int
		code      dto.ErrorCode
		retryable bool
	}{
		{apperrors.ErrOfferingNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, false},
		{apperrors.ErrEnrollmentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, false},
		{apperrors.ErrDuplicate, http.StatusConflict, dto.ErrorCodeDuplicateEnrollment, false},
		{apperrors.ErrCapacityExceeded, http.StatusConflict, dto.ErrorCodeCapacityExceeded, false},
		{fmt.Errorf("%w: CS101 08:00-10:00", apperrors.ErrScheduleOverlap), http.StatusConflict, dto.ErrorCodeScheduleOverlap, false},
		{fmt.Errorf("%w: serialization failure", apperrors.ErrConcurrencyConflict), http.StatusConflict, dto.ErrorCodeConcurrencyConflict, true},
		{apperrors.ErrInvalidTransition, http.StatusConflict, dto.ErrorCodeInvalidTransition, false},
		{apperrors.ErrOfferingAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, false},
		{apperrors.NewValidationError("capacity", "capacity must be positive"), http.StatusBadRequest, dto.ErrorCodeValidationFailed, false},
		{apperrors.NewForbiddenError("nope"), http.StatusForbidden, dto.ErrorCodeForbidden, false},
		{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, false},
		{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, false},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, dto.ErrorCodeTimeout, true},
		{fmt.Errorf("error loading schedule: %w", context.Canceled), StatusClientClosedRequest, dto.ErrorCodeRequestAborted, false},
		{errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer, false},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			status, detail := errorResponse(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, detail.Code)
			assert.Equal(t, tc.retryable, detail.Retryable)
		})
	}
}

func TestErrorResponseKeepsContext(t *testing.T) {
	_, detail := errorResponse(apperrors.NewValidationError("capacity", "capacity must be positive"))
	assert.Equal(t, "capacity", detail.Field)
	assert.Equal(t, "capacity must be positive", detail.Message)

	_, detail = errorResponse(fmt.Errorf("%w: CS101 08:00-10:00", apperrors.ErrScheduleOverlap))
	assert.Contains(t, detail.Message, "CS101")

	_, detail = errorResponse(fmt.Errorf("%w: pq: deadlock detected", apperrors.ErrConcurrencyConflict))
	assert.NotContains(t, detail.Message, "deadlock", "driver details stay in the logs")
}

func newAuthRouter(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "k", AccessTokenExp: time.Hour, TokenIssuer: "test"})
	m := NewAuthMiddleware(jwtService)

	echo := func(c *gin.Context) {
		actor, role, ok := Actor(c)
		c.JSON(http.StatusOK, gin.H{"actor": actor, "role": role, "ok": ok, "session": SessionID(c)})
	}

	r := gin.New()
	r.GET("/optional", Session(false), m.OptionalAuth(), echo)
	r.GET("/required", m.JWTAuth(), echo)
	r.GET("/admin", m.JWTAuth(), m.RoleRequired(models.RoleAdministrator), echo)
	return r, jwtService
}

func serve(r *gin.Engine, path, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	body := map[string]interface{}{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestAuthMiddleware(t *testing.T) {
	r, jwtService := newAuthRouter(t)
	student, _, err := jwtService.GenerateToken("s-1", models.RoleStudent)
	require.NoError(t, err)
	admin, _, err := jwtService.GenerateToken("a-1", models.RoleAdministrator)
	require.NoError(t, err)

	w, body := serve(r, "/optional", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["ok"])
	assert.NotEmpty(t, body["session"])

	w, body = serve(r, "/optional", student)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s-1", body["actor"])

	w, _ = serve(r, "/optional", "bad.token.here")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = serve(r, "/required", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = serve(r, "/required", student)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "STUDENT", body["role"])

	w, _ = serve(r, "/admin", student)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = serve(r, "/admin", admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a-1", body["actor"])
}

func TestSessionReusesValidCookie(t *testing.T) {
	r, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "2b1f6f7e-8f0c-4a55-9f43-4d9b8c8c1a10"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Result().Cookies())
	assert.Contains(t, w.Body.String(), "2b1f6f7e-8f0c-4a55-9f43-4d9b8c8c1a10")

	req = httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "forged"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Len(t, w.Result().Cookies(), 1)
	assert.NotEqual(t, "forged", w.Result().Cookies()[0].Value)
}

func TestRequestLoggerAndTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()), Timeout(50*time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
		HandleAPIError(c, c.Request.Context().Err())
	})

	req := httptest.NewRequest(http.MethodGet, "/slow", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

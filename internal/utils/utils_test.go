package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, 1, ClampLimit(-5))
	assert.Equal(t, MaxLimit, ClampLimit(1000))
	assert.Equal(t, 10, ClampLimit(10))
	assert.Equal(t, 0, ClampOffset(-1))
}

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?limit=500&offset=-3", nil)
	p := GetPaginationParams(c)
	assert.Equal(t, MaxLimit, p.Limit)
	assert.Equal(t, 0, p.Offset)

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?limit=10&page=3", nil)
	p = GetPaginationParams(c)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, 20, p.Offset)
}

func TestTokens(t *testing.T) {
	SetJWTSecret("test-secret")
	id := uuid.New()

	access, err := GenerateJWT(id, "a@b.c", "CONSUMER", 1)
	require.NoError(t, err)
	claims, err := ValidateJWT(access)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.UserID)
	assert.Equal(t, "CONSUMER", claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.RemainingTTL() > 0)

	refresh, err := GenerateRefreshToken(id, 1)
	require.NoError(t, err)
	_, err = ValidateJWT(refresh)
	assert.Error(t, err, "refresh token must not authenticate requests")
	rc, err := ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, id.String(), rc.Subject)

	_, err = ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestValidatePassword(t *testing.T) {
	type req struct {
		Password string `validate:"password"`
	}
	assert.NoError(t, ValidateStruct(&req{Password: "abcdefg1"}))
	assert.Error(t, ValidateStruct(&req{Password: "short1"}))
	assert.Error(t, ValidateStruct(&req{Password: "lettersonly"}))

	errs := GetValidationErrors(ValidateStruct(&req{Password: "x"}))
	require.Len(t, errs, 1)
	assert.Equal(t, "password", errs[0].Field)
}

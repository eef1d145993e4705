package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/scpnet/scp-backend/internal/config"
	"github.com/scpnet/scp-backend/internal/repository"
	"github.com/scpnet/scp-backend/internal/repository/memstore"
	"github.com/scpnet/scp-backend/internal/router"
)

type memoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (r *memoryRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revoked[jti] {
		return false, nil
	}
	r.revoked[jti] = true
	return true, nil
}

func (r *memoryRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked[jti], nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

type APITestSuite struct {
	suite.Suite
	store  *repository.Store
	router *gin.Engine
	seq    int
}

func (suite *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "handler-test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
		AWS: config.AWSConfig{
			LocalUploadDir: suite.T().TempDir(),
			LocalBaseURL:   "/uploads",
		},
		Payment:   config.PaymentConfig{Currency: "usd"},
		RateLimit: config.RateLimitConfig{GeneralPerMinute: 10000, AuthPerMinute: 10000},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
		I18n:      config.I18nConfig{DefaultLocale: "en"},
	}

	suite.store = memstore.New()
	suite.router = router.Initialize(router.Dependencies{
		Store:   suite.store,
		Config:  cfg,
		Revoker: &memoryRevoker{revoked: map[string]bool{}},
	})
}

func (suite *APITestSuite) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var res envelope
	if w.Header().Get("Content-Type") != "application/pdf" {
		require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	}
	return w, res
}

func (suite *APITestSuite) decode(res envelope, into interface{}) {
	require.NoError(suite.T(), json.Unmarshal(res.Data, into))
}

type session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

func (suite *APITestSuite) register(role string) session {
	suite.seq++
	w, res := suite.do(http.MethodPost, "/v1/auth/register", "", map[string]interface{}{
		"email":    fmt.Sprintf("user%d@example.com", suite.seq),
		"password": "TestPass123",
		"role":     role,
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var s session
	suite.decode(res, &s)
	return s
}

type idOnly struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// partnership registers an owner with a supplier and a consumer with an
// accepted link to it.
func (suite *APITestSuite) partnership() (owner, consumer session, supplierID, linkID string) {
	owner = suite.register("SUPPLIER_OWNER")
	consumer = suite.register("CONSUMER")

	w, res := suite.do(http.MethodPost, "/v1/suppliers", owner.AccessToken, map[string]string{"name": "Acme " + owner.User.ID[:8]})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	var supplier idOnly
	suite.decode(res, &supplier)

	w, res = suite.do(http.MethodPost, "/v1/links/"+supplier.ID, consumer.AccessToken, nil)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	var link idOnly
	suite.decode(res, &link)

	w, _ = suite.do(http.MethodPost, "/v1/links/"+link.ID+"/accept", owner.AccessToken, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	return owner, consumer, supplier.ID, link.ID
}

func (suite *APITestSuite) TestUserRegistration() {
	w, res := suite.do(http.MethodPost, "/v1/auth/register", "", map[string]interface{}{
		"email":    "test@example.com",
		"password": "TestPass123",
	})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)
	assert.True(suite.T(), res.Success)

	var s session
	suite.decode(res, &s)
	assert.Equal(suite.T(), "CONSUMER", s.User.Role)
	assert.NotEmpty(suite.T(), s.AccessToken)

	w, res = suite.do(http.MethodPost, "/v1/auth/register", "", map[string]interface{}{
		"email":    "test@example.com",
		"password": "TestPass123",
	})
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	assert.Equal(suite.T(), "CONFLICT", res.Error.Code)

	w, _ = suite.do(http.MethodPost, "/v1/auth/register", "", map[string]interface{}{
		"email":    "sales@example.com",
		"password": "TestPass123",
		"role":     "SUPPLIER_SALES",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestUserLogin() {
	suite.do(http.MethodPost, "/v1/auth/register", "", map[string]interface{}{
		"email":    "test@example.com",
		"password": "TestPass123",
	})

	w, res := suite.do(http.MethodPost, "/v1/auth/login", "", map[string]interface{}{
		"email":    "test@example.com",
		"password": "TestPass123",
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.True(suite.T(), res.Success)

	w, res = suite.do(http.MethodPost, "/v1/auth/login", "", map[string]interface{}{
		"email":    "test@example.com",
		"password": "WrongPass123",
	})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(suite.T(), "UNAUTHENTICATED", res.Error.Code)
}

func (suite *APITestSuite) TestAuthenticationRequired() {
	w, _ := suite.do(http.MethodGet, "/v1/auth/me", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w, _ = suite.do(http.MethodGet, "/v1/auth/me", "not-a-token", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	s := suite.register("CONSUMER")
	w, _ = suite.do(http.MethodGet, "/v1/auth/me", s.RefreshToken, nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w, _ = suite.do(http.MethodGet, "/v1/auth/me", s.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestLogoutRevokesToken() {
	s := suite.register("CONSUMER")

	w, _ := suite.do(http.MethodPost, "/v1/auth/logout", s.AccessToken, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w, _ = suite.do(http.MethodGet, "/v1/auth/me", s.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w, res := suite.do(http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": s.RefreshToken})
	require.Equal(suite.T(), http.StatusOK, w.Code)
	var next session
	suite.decode(res, &next)

	w, _ = suite.do(http.MethodGet, "/v1/auth/me", next.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestRoleGuards() {
	consumer := suite.register("CONSUMER")

	w, res := suite.do(http.MethodPost, "/v1/products", consumer.AccessToken, map[string]interface{}{
		"name": "x", "unit": "pcs", "price": "1.00",
	})
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
	require.NotNil(suite.T(), res.Error)
	assert.Equal(suite.T(), "CONSUMER", res.Error.Details["role"])

	owner := suite.register("SUPPLIER_OWNER")
	w, _ = suite.do(http.MethodPost, "/v1/orders", owner.AccessToken, map[string]interface{}{})
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	// an owner without a supplier is not affiliated yet
	w, _ = suite.do(http.MethodGet, "/v1/suppliers/me", owner.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *APITestSuite) TestInvalidIDIsBadRequest() {
	consumer := suite.register("CONSUMER")

	w, _ := suite.do(http.MethodGet, "/v1/orders/not-a-uuid", consumer.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w, _ = suite.do(http.MethodPost, "/v1/links/not-a-uuid", consumer.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestLinkConflictAndTransitionErrors() {
	owner, consumer, supplierID, linkID := suite.partnership()

	w, res := suite.do(http.MethodPost, "/v1/links/"+supplierID, consumer.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	require.NotNil(suite.T(), res.Error)
	assert.Equal(suite.T(), "CONFLICT", res.Error.Code)
	assert.Equal(suite.T(), "ACCEPTED", res.Error.Details["status"])

	w, res = suite.do(http.MethodPost, "/v1/links/"+linkID+"/accept", owner.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	require.NotNil(suite.T(), res.Error)
	assert.Equal(suite.T(), "INVALID_TRANSITION", res.Error.Code)
	assert.Equal(suite.T(), "ACCEPTED", res.Error.Details["from"])
	assert.Equal(suite.T(), "ACCEPTED", res.Error.Details["to"])

	w, _ = suite.do(http.MethodGet, "/v1/links?status=ACCEPTED", consumer.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "1", w.Header().Get("X-Total-Count"))
}

func (suite *APITestSuite) TestOrderLifecycle() {
	owner, consumer, supplierID, _ := suite.partnership()

	w, res := suite.do(http.MethodPost, "/v1/products", owner.AccessToken, map[string]interface{}{
		"name":  "Crate",
		"unit":  "pcs",
		"price": "12.50",
		"stock": 40,
		"moq":   2,
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	var product idOnly
	suite.decode(res, &product)

	w, _ = suite.do(http.MethodGet, "/v1/products?supplier_id="+supplierID, consumer.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "1", w.Header().Get("X-Total-Count"))

	w, res = suite.do(http.MethodPost, "/v1/orders", consumer.AccessToken, map[string]interface{}{
		"supplier_id": supplierID,
		"items":       []map[string]interface{}{{"product_id": product.ID, "quantity": 1}},
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	require.NotNil(suite.T(), res.Error)
	assert.EqualValues(suite.T(), 2, res.Error.Details["moq"])

	w, res = suite.do(http.MethodPost, "/v1/orders", consumer.AccessToken, map[string]interface{}{
		"supplier_id": supplierID,
		"items":       []map[string]interface{}{{"product_id": product.ID, "quantity": 4}},
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	var order struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		TotalAmount string `json:"total_amount"`
	}
	suite.decode(res, &order)
	assert.Equal(suite.T(), "CREATED", order.Status)
	assert.Equal(suite.T(), "50", order.TotalAmount)

	w, _ = suite.do(http.MethodPost, "/v1/orders/"+order.ID+"/accept", owner.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w, res = suite.do(http.MethodPost, "/v1/orders/"+order.ID+"/reject", owner.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	assert.Equal(suite.T(), "INVALID_TRANSITION", res.Error.Code)

	w, _ = suite.do(http.MethodGet, "/v1/orders/"+order.ID+"/invoice", consumer.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "application/pdf", w.Header().Get("Content-Type"))
	assert.True(suite.T(), bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	// no payment gateway configured
	w, _ = suite.do(http.MethodPost, "/v1/orders/"+order.ID+"/pay", consumer.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestComplaintFlow() {
	owner, consumer, _, linkID := suite.partnership()

	w, res := suite.do(http.MethodPost, "/v1/staff", owner.AccessToken, map[string]interface{}{
		"email":    "sales@example.com",
		"password": "TestPass123",
		"role":     "SALES",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	w, res = suite.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "sales@example.com",
		"password": "TestPass123",
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)
	var sales session
	suite.decode(res, &sales)

	w, res = suite.do(http.MethodPost, "/v1/complaints", consumer.AccessToken, map[string]interface{}{
		"link_id":     linkID,
		"description": "two crates arrived broken",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	var complaint idOnly
	suite.decode(res, &complaint)

	w, _ = suite.do(http.MethodPatch, "/v1/complaints/"+complaint.ID+"/status", sales.AccessToken, map[string]string{"status": "IN_PROGRESS"})
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w, res = suite.do(http.MethodPost, "/v1/complaints/"+complaint.ID+"/escalate", sales.AccessToken, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	var escalated struct {
		Status       string `json:"status"`
		AssignedToID string `json:"assigned_to_id"`
	}
	suite.decode(res, &escalated)
	assert.Equal(suite.T(), "ESCALATED", escalated.Status)
	assert.Equal(suite.T(), owner.User.ID, escalated.AssignedToID)

	w, _ = suite.do(http.MethodGet, "/v1/complaints?mine=true", owner.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "1", w.Header().Get("X-Total-Count"))

	w, _ = suite.do(http.MethodPatch, "/v1/complaints/"+complaint.ID+"/status", owner.AccessToken, map[string]string{"status": "RESOLVED"})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w, res = suite.do(http.MethodPatch, "/v1/complaints/"+complaint.ID+"/status", owner.AccessToken, map[string]string{"status": "IN_PROGRESS"})
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	assert.Equal(suite.T(), "INVALID_TRANSITION", res.Error.Code)
}

func (suite *APITestSuite) TestChatMessages() {
	owner, consumer, _, linkID := suite.partnership()

	w, _ := suite.do(http.MethodPost, "/v1/chat/"+linkID+"/messages", consumer.AccessToken, map[string]string{"text": "hello"})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	w, _ = suite.do(http.MethodPost, "/v1/chat/"+linkID+"/messages", owner.AccessToken, map[string]string{})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	outsider := suite.register("CONSUMER")
	w, _ = suite.do(http.MethodGet, "/v1/chat/"+linkID+"/messages", outsider.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w, _ = suite.do(http.MethodGet, "/v1/chat/"+linkID+"/messages", owner.AccessToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "1", w.Header().Get("X-Total-Count"))
}

func (suite *APITestSuite) TestHealth() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(suite.T(), "healthy", body["status"])
	assert.Equal(suite.T(), router.Version, body["version"])
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/mailgate/config"
	"github.com/customeros/mailgate/dto"
	"github.com/customeros/mailgate/internal/logger"
	"github.com/customeros/mailgate/internal/models"
	"github.com/customeros/mailgate/internal/testutil"
	"github.com/customeros/mailgate/services"
	"github.com/customeros/mailgate/services/ingestion"
	"github.com/customeros/mailgate/services/tenant"
)

const (
	otherTenantName = "globex"
	otherTenantKey  = "globex-api-key"
)

type testServer struct {
	router *gin.Engine
	store  *testutil.Store
	svcs   *services.Services
}

func newTestServer(t *testing.T, secret string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		AppConfig: &config.AppConfig{ServiceName: "mailgate"},
		IngestConfig: &config.IngestConfig{
			WebhookSecret:   secret,
			SignatureHeader: "X-Mailgate-Signature",
			MaxBodyBytes:    64 * 1024,
			MimeParser:      "enmime",
		},
		StorageConfig:  &config.StorageConfig{Backend: "local", LocalPath: t.TempDir()},
		DeliveryConfig: &config.DeliveryConfig{Backend: "none"},
		AuditConfig:    &config.AuditConfig{Enabled: true, LookbackHours: 24, BatchSize: 10},
	}

	store := testutil.NewStore()
	testutil.SeedTenant(store, tenant.HashAPIKey(testutil.TenantAPIKey))
	store.AddTenant(models.Tenant{ID: 2, Name: otherTenantName, APIKeyHash: tenant.HashAPIKey(otherTenantKey)})

	log := logger.NewNopLogger()
	svcs, err := services.InitServices(context.Background(), cfg, log, store.Repositories())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svcs.Close() })

	router := gin.New()
	RegisterRoutes(router, cfg, svcs, log)
	return &testServer{router: router, store: store, svcs: svcs}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.svcs.IngestionService.Wait()
	return w
}

func inboundBody(t *testing.T, rcpt string) []byte {
	t.Helper()
	body, err := json.Marshal(dto.InboundEnvelopeRequest{
		MailFrom:    "bounce@sender.example",
		RcptTos:     []string{rcpt},
		MimeB64:     base64.StdEncoding.EncodeToString(testutil.RawMime("alice@sender.example", rcpt, "Launch plan", "see below")),
		AuthResults: "dkim=pass; dmarc=pass",
	})
	require.NoError(t, err)
	return body
}

func postInbound(body []byte, contentType string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/inbound", bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	return req
}

func authed(method, path, tenantName, apiKey string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Tenant", tenantName)
	req.Header.Set("X-Mailgate-Api-Key", apiKey)
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestInboundAndQueryRoundTrip(t *testing.T) {
	s := newTestServer(t, "")
	s.store.AddRoute(testutil.StoreRoute(1, "*"))

	w := s.do(postInbound(inboundBody(t, "team@acme.example"), "application/json"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[dto.InboundResponse](t, w)
	assert.Equal(t, w.Header().Get("X-Trace-Id"), created.TraceID)
	assert.Len(t, created.TraceID, 12)
	assert.Equal(t, []uint64{1}, created.MatchedRouteIDs)
	assert.Equal(t, "alice@sender.example", created.Item.From)
	id := created.Item.ID

	w = s.do(authed(http.MethodGet, "/v1/messages?perPage=10&dkim=pass", testutil.TenantName, testutil.TenantAPIKey))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[dto.MessagePage](t, w)
	assert.Equal(t, 1, page.Meta.Total)
	assert.Equal(t, 10, page.Meta.PerPage)
	require.Len(t, page.Items, 1)
	assert.Equal(t, id, page.Items[0].ID)

	w = s.do(authed(http.MethodGet, "/v1/messages/"+id, testutil.TenantName, testutil.TenantAPIKey))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	detail := decode[struct {
		Item dto.MessageDetail `json:"item"`
	}](t, w)
	assert.Equal(t, created.Item.From, detail.Item.From)
	assert.Equal(t, "Launch plan", detail.Item.Subject)
	require.NotNil(t, detail.Item.DKIM)
	assert.Equal(t, "pass", *detail.Item.DKIM)
	assert.Equal(t, created.Item.DMARC, detail.Item.DMARC)
	assert.Equal(t, "Launch plan", detail.Item.Headers["subject"])

	w = s.do(authed(http.MethodGet, "/v1/messages/"+id+"/raw", testutil.TenantName, testutil.TenantAPIKey))
	require.Equal(t, http.StatusOK, w.Code)
	raw := decode[dto.RawMessage](t, w)
	assert.Equal(t, id+".eml", raw.Filename)
	mime, err := base64.StdEncoding.DecodeString(raw.MimeB64)
	require.NoError(t, err)
	assert.Contains(t, string(mime), "Subject: Launch plan")
}

func TestQueryAuthorization(t *testing.T) {
	s := newTestServer(t, "")
	s.store.AddRoute(testutil.StoreRoute(1, "*"))
	w := s.do(postInbound(inboundBody(t, "team@acme.example"), "application/json"))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[dto.InboundResponse](t, w).Item.ID

	w = s.do(authed(http.MethodGet, "/v1/messages", testutil.TenantName, "wrong-key"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	errBody := decode[dto.ErrorResponse](t, w)
	assert.Equal(t, w.Header().Get("X-Trace-Id"), errBody.TraceID)
	assert.NotEmpty(t, errBody.Error)

	w = s.do(httptest.NewRequest(http.MethodGet, "/v1/messages", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(authed(http.MethodGet, "/v1/messages/"+id, otherTenantName, otherTenantKey))
	assert.Equal(t, http.StatusNotFound, w.Code, "another tenant's message must look missing")

	w = s.do(authed(http.MethodGet, "/v1/messages", otherTenantName, otherTenantKey))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[dto.MessagePage](t, w).Meta.Total)
}

func TestInboundResponses(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(postInbound(inboundBody(t, "team@acme.example"), "application/json"))
	assert.Equal(t, http.StatusNoContent, w.Code, "no store route means not retained")
	assert.Empty(t, w.Body.Bytes())
	assert.NotEmpty(t, w.Header().Get("X-Trace-Id"))
	assert.Empty(t, s.store.Messages())

	w = s.do(postInbound(inboundBody(t, "team@unknown.example"), "application/json"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(postInbound([]byte("hello"), "image/png"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = s.do(postInbound([]byte(`{"rcpt_tos": []}`), "application/json"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(postInbound(bytes.Repeat([]byte("a"), 64*1024+1), "message/rfc822"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInboundRawMime(t *testing.T) {
	s := newTestServer(t, "")
	s.store.AddRoute(testutil.StoreRoute(1, "header:subject=Raw hello"))

	req := postInbound(testutil.RawMime("alice@sender.example", "team@acme.example", "Raw hello", "body"), "message/rfc822")
	req.Header.Set("X-Rcpt-To", "team@acme.example")
	req.Header.Set("X-Received-At", "2025-02-01T10:00:00Z")
	w := s.do(req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[dto.InboundResponse](t, w)
	assert.Equal(t, "2025-02-01T10:00:00Z", created.Item.ReceivedAt.Format("2006-01-02T15:04:05Z07:00"))
}

func TestInboundSignature(t *testing.T) {
	s := newTestServer(t, "relay-secret")
	s.store.AddRoute(testutil.StoreRoute(1, "*"))
	body := inboundBody(t, "team@acme.example")

	w := s.do(postInbound(body, "application/json"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := postInbound(body, "application/json")
	req.Header.Set("X-Mailgate-Signature", ingestion.Sign("relay-secret", body))
	w = s.do(req)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestListRejectsBadQuery(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(authed(http.MethodGet, "/v1/messages?spamMin=abc&page=0&dkim=maybe", testutil.TenantName, testutil.TenantAPIKey))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errBody := decode[dto.ErrorResponse](t, w)
	assert.True(t, strings.Contains(errBody.Error, "spamMin"))
	assert.True(t, strings.Contains(errBody.Error, "dkim"))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-Id"))

	w = s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mailgate_ingest_signature_enforced")
}

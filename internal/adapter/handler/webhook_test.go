package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWebhook_ValidationHandshake(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/transcripts?validationToken=abc-123", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewWebhook(nil, zap.NewNop())
	require.NoError(t, h.Notifications(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/plain")
}

func TestWebhook_AcceptsNotificationEnvelope(t *testing.T) {
	e := echo.New()
	body := `{"value":[{"subscriptionId":"sub-1","clientState":"state-1","changeType":"created","resource":"communications/onlineMeetings/m-1/transcripts/tr-1"}]}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/transcripts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewWebhook(nil, zap.NewNop())
	require.NoError(t, h.Notifications(c))

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestWebhook_MalformedPayload(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/transcripts", strings.NewReader("not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewWebhook(nil, zap.NewNop())
	require.NoError(t, h.Notifications(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

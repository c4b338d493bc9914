package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipra-ai/shipra-backend/internal/models"
	"github.com/shipra-ai/shipra-backend/internal/services"
	"github.com/shipra-ai/shipra-backend/internal/storage"
)

type stubSender struct{ sent []string }

func (s *stubSender) SendWhatsAppMessage(_, message string) error {
	s.sent = append(s.sent, message)
	return nil
}

type stubExtractor struct{ details map[string]any }

func (s *stubExtractor) ExtractFromText(context.Context, string) (map[string]any, error) {
	return s.details, nil
}
func (s *stubExtractor) ExtractFromImage(context.Context, string) (map[string]any, error) {
	return s.details, nil
}
func (s *stubExtractor) ExtractFromAudio(context.Context, string, string) (map[string]any, error) {
	return s.details, nil
}
func (s *stubExtractor) ExtractFromPDF(context.Context, string) (map[string]any, error) {
	return s.details, nil
}

type stubERP struct{}

func (stubERP) CreateSalesOrder(context.Context, map[string]any) (map[string]any, error) {
	return map[string]any{"data": map[string]any{"name": "SO-0001"}}, nil
}

func newTestApp() (*fiber.App, *services.SessionStore, *storage.MemoryStore) {
	sessions := services.NewSessionStore(0)
	orders := storage.NewMemoryStore()

	whatsappService := services.NewWhatsAppService(sessions, &stubSender{},
		&stubExtractor{details: map[string]any{"item": "rice"}}, stubERP{}, orders)

	app := fiber.New()

	whatsappHandler := NewWhatsAppHandler(whatsappService)
	sessionHandler := NewSessionHandler(sessions, orders)

	app.Post("/webhook/whatsapp", whatsappHandler.HandleWebhook)
	app.Post("/test/whatsapp", whatsappHandler.HandleTestWebhook)
	app.Get("/admin/sessions", sessionHandler.ListSessions)
	app.Get("/admin/sessions/count", sessionHandler.ActiveCount)
	app.Get("/admin/sessions/:id/summary", sessionHandler.GetSummary)
	app.Post("/admin/sessions", sessionHandler.CreateSession)
	app.Post("/admin/sessions/cleanup", sessionHandler.Cleanup)
	app.Post("/admin/sessions/:id/complete", sessionHandler.CompleteSession)
	app.Post("/admin/sessions/:id/expire", sessionHandler.ExpireSession)
	app.Get("/admin/conversations/:phone", sessionHandler.GetHistory)
	app.Get("/admin/orders", sessionHandler.ListOrders)

	return app, sessions, orders
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestHandleWebhookTextMessage(t *testing.T) {
	app, sessions, orders := newTestApp()

	form := "From=whatsapp%3A%2B1000&Body=2+bags+of+rice&NumMedia=0"
	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	session := sessions.GetSessionByPhone("+1000")
	require.NotNil(t, session)
	assert.Len(t, session.Messages, 2)

	records, _ := orders.GetAllOrders()
	require.Len(t, records, 1)
	assert.Equal(t, models.OrderStatusSubmitted, records[0].Status)
}

func TestHandleWebhookIgnoresStatusCallbacks(t *testing.T) {
	app, sessions, _ := newTestApp()

	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader("MessageStatus=delivered"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, sessions.GetAllSessions())
}

func TestHandleTestWebhook(t *testing.T) {
	app, sessions, _ := newTestApp()

	payload, _ := json.Marshal(map[string]string{"from": "+1000", "message": "rice please"})
	req := httptest.NewRequest(http.MethodPost, "/test/whatsapp", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.NotNil(t, sessions.GetSessionByPhone("+1000"))
}

func TestAdminSessionEndpoints(t *testing.T) {
	app, sessions, _ := newTestApp()

	session := sessions.AddMessage("1000", "hello", models.MessageTypeText, models.DirectionInbound, nil)

	// List
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin/sessions", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["count"])

	// Active count
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/admin/sessions/count", nil))
	require.NoError(t, err)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(1), body["active_sessions"])

	// Summary
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/admin/sessions/"+session.SessionID+"/summary", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, session.SessionID, body["session_id"])
	assert.Equal(t, float64(1), body["message_count"])

	// Summary for unknown session
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/admin/sessions/nope/summary", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Conversation history
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/admin/conversations/1000?limit=10", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(1), body["count"])

	// Complete
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/admin/sessions/"+session.SessionID+"/complete", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.SessionStatusCompleted, session.Status)

	// Complete unknown
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/admin/sessions/nope/complete", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminCreateAndCleanup(t *testing.T) {
	app, sessions, _ := newTestApp()

	payload, _ := json.Marshal(map[string]any{
		"phone_number":    "+1000",
		"initial_message": "hello",
	})
	req := httptest.NewRequest(http.MethodPost, "/admin/sessions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	session := sessions.GetSessionByPhone("+1000")
	require.NotNil(t, session)

	// Missing phone number is rejected
	req = httptest.NewRequest(http.MethodPost, "/admin/sessions", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Expire then sweep
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/admin/sessions/"+session.SessionID+"/expire", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/admin/sessions/cleanup", nil))
	require.NoError(t, err)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["purged"])
	assert.Empty(t, sessions.GetAllSessions())
}

func TestAdminListOrders(t *testing.T) {
	app, _, orders := newTestApp()

	_, err := orders.CreateOrder(&models.OrderRecord{PhoneNumber: "+1000"})
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin/orders", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["count"])
}

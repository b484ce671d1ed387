package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/transcript-triage/backend/internal/api/handlers"
	"github.com/zatekoja/transcript-triage/backend/internal/application/services"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/transcript-triage/backend/pkg/errors"
)

func postStatus(handler *handlers.LeadHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/leads/lead-1/status", strings.NewReader(body))
	req.SetPathValue("id", "lead-1")
	w := httptest.NewRecorder()
	handler.UpdateStatus(w, req)
	return w
}

func TestLeadHandler_UpdateStatus(t *testing.T) {
	t.Run("passes notes and due date", func(t *testing.T) {
		service := &stubLeadService{}
		handler := handlers.NewLeadHandler(service)

		w := postStatus(handler, `{"status":"contacted","notes":"left voicemail","due_at":"2026-10-20T09:00:00+02:00"}`)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, service.change)
		assert.Equal(t, "contacted", service.change.Status)
		require.NotNil(t, service.change.Notes)
		assert.Equal(t, "left voicemail", *service.change.Notes)
		require.NotNil(t, service.change.DueAt)
		assert.True(t, service.change.DueAt.Equal(time.Date(2026, 10, 20, 7, 0, 0, 0, time.UTC)))
	})

	t.Run("unknown status is rejected before the service", func(t *testing.T) {
		service := &stubLeadService{}
		handler := handlers.NewLeadHandler(service)

		w := postStatus(handler, `{"status":"archived"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.CodeInvalidStatus, decodeError(t, w))
		assert.Nil(t, service.change)
	})

	t.Run("bad due date", func(t *testing.T) {
		service := &stubLeadService{}
		handler := handlers.NewLeadHandler(service)

		w := postStatus(handler, `{"status":"open","due_at":"next tuesday"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.CodeInvalidDueAt, decodeError(t, w))
		assert.Nil(t, service.change)
	})

	t.Run("lead not found", func(t *testing.T) {
		handler := handlers.NewLeadHandler(&stubLeadService{err: apperrors.NewNotFoundError(apperrors.CodeNotFound)})

		w := postStatus(handler, `{"status":"dismissed"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLeadHandler_ListQueue(t *testing.T) {
	service := &stubLeadService{leads: []*entities.LeadOpportunity{{ID: "lead-1", Status: entities.LeadStatusOpen}}}
	handler := handlers.NewLeadHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/v1/leads?view=overdue&q=knee&limit=10", nil)
	w := httptest.NewRecorder()
	handler.ListQueue(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.LeadQueueQuery{View: services.QueueViewOverdue, Query: "knee", Limit: 10}, service.query)

	var body struct {
		Leads []entities.LeadOpportunity `json:"leads"`
		Count int                        `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "lead-1", body.Leads[0].ID)
}

func TestLeadHandler_ListQueueInvalidView(t *testing.T) {
	handler := handlers.NewLeadHandler(&stubLeadService{err: apperrors.NewValidationError(apperrors.CodeInvalidView)})

	w := httptest.NewRecorder()
	handler.ListQueue(w, httptest.NewRequest(http.MethodGet, "/v1/leads?view=stale", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.CodeInvalidView, decodeError(t, w))
}

func TestDashboardHandler_GetMetrics(t *testing.T) {
	handler := handlers.NewDashboardHandler(&stubDashboardService{
		metrics: &entities.DashboardMetrics{InboxNew: 3, ActiveLeads: 2},
	})

	w := httptest.NewRecorder()
	handler.GetMetrics(w, httptest.NewRequest(http.MethodGet, "/v1/dashboard/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, float64(3), body["inbox_new"])
	assert.Equal(t, float64(2), body["active_leads"])
}

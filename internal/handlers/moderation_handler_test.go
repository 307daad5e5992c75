package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"feedbackportal/internal/models"
	contextutils "feedbackportal/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestModerationQueue_ReturnsFlaggedItems(t *testing.T) {
	env := newRouterEnv()
	env.feedback.On("GetFlaggedFeedback", mock.Anything, 50, 0).
		Return([]models.Feedback{{ID: "fb-1", ModerationStatus: models.ModerationFlagged}}, 1, nil)
	router := env.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/moderation/flagged", nil)
	req.Header.Set("X-API-Key", testAdminKey)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"moderationStatus":"flagged"`)
}

func TestModerationStats(t *testing.T) {
	env := newRouterEnv()
	env.feedback.On("GetModerationStats", mock.Anything).
		Return(&models.ModerationStats{Pending: 2, Flagged: 3, Total: 5}, nil)
	router := env.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/moderation/stats", nil)
	req.Header.Set("X-API-Key", testAdminKey)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var stats models.ModerationStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Flagged)
}

func TestModerationDecide_RecordsReason(t *testing.T) {
	env := newRouterEnv()
	env.feedback.On("UpdateModerationStatus", mock.Anything, "fb-1", models.ModerationRejected, "spam link").
		Return(nil)
	router := env.buildRouter()

	w := postJSON(router, "/api/moderation/fb-1", map[string]interface{}{
		"status": "rejected",
		"reason": "spam link",
	}, map[string]string{"X-API-Key": testAdminKey})

	require.Equal(t, http.StatusOK, w.Code)
	env.feedback.AssertExpectations(t)
}

func TestModerationDecide_UnknownStatus(t *testing.T) {
	env := newRouterEnv()
	router := env.buildRouter()

	w := postJSON(router, "/api/moderation/fb-1", map[string]interface{}{
		"status": "quarantined",
	}, map[string]string{"X-API-Key": testAdminKey})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModerationDecide_NotFound(t *testing.T) {
	env := newRouterEnv()
	env.feedback.On("UpdateModerationStatus", mock.Anything, "missing", models.ModerationApproved, "").
		Return(contextutils.ErrRecordNotFound)
	router := env.buildRouter()

	w := postJSON(router, "/api/moderation/missing", map[string]interface{}{
		"status": "approved",
	}, map[string]string{"X-API-Key": testAdminKey})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModerationBulk_ReportsPerItemOutcome(t *testing.T) {
	env := newRouterEnv()
	env.feedback.On("BulkUpdateModerationStatus", mock.Anything, []string{"fb-1", "fb-2"}, models.ModerationApproved, "").
		Return(&models.BulkResult{
			Succeeded: []string{"fb-1"},
			Failed:    []models.BulkFailure{{ID: "fb-2", Reason: "record not found"}},
		}, nil)
	router := env.buildRouter()

	w := postJSON(router, "/api/moderation/bulk", map[string]interface{}{
		"ids":    []string{"fb-1", "fb-2"},
		"status": "approved",
	}, map[string]string{"X-API-Key": testAdminKey})

	require.Equal(t, http.StatusOK, w.Code)
	var result models.BulkResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, []string{"fb-1"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "fb-2", result.Failed[0].ID)
}

func TestModerationBulk_EmptyIDsRejected(t *testing.T) {
	env := newRouterEnv()
	router := env.buildRouter()

	w := postJSON(router, "/api/moderation/bulk", map[string]interface{}{
		"ids":    []string{},
		"status": "approved",
	}, map[string]string{"X-API-Key": testAdminKey})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

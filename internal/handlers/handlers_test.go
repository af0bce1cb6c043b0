package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"focusquest/internal/database"
	"focusquest/internal/lock"
	"focusquest/internal/models"
	"focusquest/internal/points"
	"focusquest/internal/repository"
	"focusquest/internal/security"
	"focusquest/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handlers-test-secret-0123456789"

type apiFixture struct {
	t       *testing.T
	server  *httptest.Server
	tokens  *security.TokenManager
	parent  string
	child   string
	childID string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background()))

	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	calendar := points.NewCalendar(loc)

	tokens, err := security.NewTokenManager(testSecret)
	require.NoError(t, err)

	family := service.NewFamilyService(repository.NewFamilyRepository(db))
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), family, nil, service.NotificationOptions{})
	ledger := service.NewLedgerService(db, repository.NewRewardRepository(db), family, lock.NewKeyedMutex(), calendar,
		service.PointValues{LevelSize: 100, ScheduleCompletion: 5, MedicineTaken: 10}, notifications)
	redemptions := service.NewRedemptionService(ledger, repository.NewCatalogRepository(db), repository.NewRedemptionRepository(db),
		family, notifications, nil)
	medication := service.NewMedicationService(repository.NewMedicationRepository(db), repository.NewDoseLogRepository(db),
		repository.NewSettingsRepository(db), family, ledger, notifications, calendar)

	router := NewRouter(Routes{
		Middleware:    NewMiddleware(tokens, security.NewRateLimiter(1000, time.Minute)),
		Family:        NewFamilyHandler(family),
		Rewards:       NewRewardHandler(ledger, family),
		Redemptions:   NewRedemptionHandler(redemptions),
		Medication:    NewMedicationHandler(medication),
		Notifications: NewNotificationHandler(notifications),
	}, []string{"*"})

	f := &apiFixture{t: t, server: httptest.NewServer(router), tokens: tokens}
	t.Cleanup(f.server.Close)

	f.parent = f.token("parent-1", models.RoleParent)
	f.do(http.MethodPut, "/api/parents/me", f.parent, map[string]string{"name": "Lan", "email": "lan@example.com"}, http.StatusOK, nil)

	var child models.Child
	f.do(http.MethodPost, "/api/children", f.parent, map[string]string{"name": "Minh"}, http.StatusCreated, &child)
	f.childID = child.ID
	f.child = f.token(child.ID, models.RoleChild)
	return f
}

func (f *apiFixture) token(subject string, role models.Role) string {
	tok, err := f.tokens.Issue(subject, role, time.Hour)
	require.NoError(f.t, err)
	return tok
}

// do sends a JSON request, asserts the status and decodes the response into out when non-nil
func (f *apiFixture) do(method, path, token string, body interface{}, wantStatus int, out interface{}) {
	f.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(f.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(AuthorizationHeader, BearerPrefix+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(f.t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(f.t, err)

	require.Equalf(f.t, wantStatus, resp.StatusCode, "%s %s: %s", method, path, payload)
	if out != nil {
		require.NoError(f.t, json.Unmarshal(payload, out))
	}
}

func TestHealthzIsPublic(t *testing.T) {
	f := newAPIFixture(t)
	var body map[string]string
	f.do(http.MethodGet, "/healthz", "", nil, http.StatusOK, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestAPIRequiresBearerToken(t *testing.T) {
	f := newAPIFixture(t)

	f.do(http.MethodGet, "/api/children", "", nil, http.StatusUnauthorized, nil)
	f.do(http.MethodGet, "/api/children", "not-a-jwt", nil, http.StatusUnauthorized, nil)

	other, err := security.NewTokenManager("a-different-secret-value")
	require.NoError(t, err)
	forged, err := other.Issue("parent-1", models.RoleParent, time.Hour)
	require.NoError(t, err)
	f.do(http.MethodGet, "/api/children", forged, nil, http.StatusUnauthorized, nil)
}

func TestScheduleCompletionIsIdempotent(t *testing.T) {
	f := newAPIFixture(t)
	path := "/api/children/" + f.childID + "/schedule/item-42/complete"

	var first, second awardResponse
	f.do(http.MethodPost, path, f.child, map[string]string{"title": "Homework"}, http.StatusCreated, &first)
	f.do(http.MethodPost, path, f.child, map[string]string{"title": "Homework"}, http.StatusOK, &second)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.Event.ID, second.Event.ID)

	var profile models.ChildRewardProfile
	f.do(http.MethodGet, "/api/children/"+f.childID+"/rewards/profile", f.child, nil, http.StatusOK, &profile)
	assert.Equal(t, 5, profile.CurrentPoints)
	assert.Equal(t, 5, profile.TotalPointsEarned)
	assert.Equal(t, 1, profile.Level)
	assert.Equal(t, 100, profile.NextLevelPoints)
}

func TestBonusAwardRequiresParent(t *testing.T) {
	f := newAPIFixture(t)
	path := "/api/children/" + f.childID + "/rewards/award"
	award := map[string]interface{}{"points": 95, "reason": "Great focus week", "category": "focus_improvement"}

	f.do(http.MethodPost, path, f.child, award, http.StatusForbidden, nil)

	var resp awardResponse
	f.do(http.MethodPost, path, f.parent, award, http.StatusCreated, &resp)
	assert.Equal(t, 95, resp.Event.Points)

	stranger := f.token("parent-2", models.RoleParent)
	f.do(http.MethodPost, path, stranger, award, http.StatusForbidden, nil)
}

func TestRequestValidation(t *testing.T) {
	f := newAPIFixture(t)
	award := "/api/children/" + f.childID + "/rewards/award"

	var body errorBody
	f.do(http.MethodPost, award, f.parent, map[string]interface{}{"points": 0, "reason": "x"}, http.StatusBadRequest, &body)
	assert.Equal(t, "points", body.Field)

	f.do(http.MethodPost, award, f.parent, map[string]interface{}{"points": 5, "reason": "x", "bogus": true}, http.StatusBadRequest, nil)
	f.do(http.MethodPost, award, f.parent, map[string]interface{}{"points": 5, "reason": "x", "category": "medicine"}, http.StatusBadRequest, nil)
	f.do(http.MethodGet, "/api/children/"+f.childID+"/rewards/events?limit=abc", f.parent, nil, http.StatusBadRequest, nil)
}

func TestRedemptionFlow(t *testing.T) {
	f := newAPIFixture(t)
	base := "/api/children/" + f.childID

	var item models.RewardCatalogItem
	f.do(http.MethodPost, base+"/catalog", f.parent, map[string]interface{}{"title": "Movie night", "pointsCost": 30}, http.StatusCreated, &item)

	f.do(http.MethodPost, base+"/redemptions", f.child, map[string]string{"rewardId": item.ID}, http.StatusConflict, nil)

	f.do(http.MethodPost, base+"/rewards/award", f.parent, map[string]interface{}{"points": 50, "reason": "Tidy room"}, http.StatusCreated, nil)

	var req models.RedemptionRequest
	f.do(http.MethodPost, base+"/redemptions", f.child, map[string]string{"rewardId": item.ID}, http.StatusCreated, &req)
	assert.Equal(t, models.RedemptionPending, req.Status)

	var profile models.ChildRewardProfile
	f.do(http.MethodGet, base+"/rewards/profile", f.child, nil, http.StatusOK, &profile)
	assert.Equal(t, 20, profile.CurrentPoints)

	f.do(http.MethodPost, "/api/redemptions/"+req.ID+"/resolve", f.child, map[string]bool{"approve": true}, http.StatusForbidden, nil)
	f.do(http.MethodPost, "/api/redemptions/"+req.ID+"/resolve", f.parent, map[string]bool{"approve": false}, http.StatusOK, &req)
	assert.Equal(t, models.RedemptionRejected, req.Status)
	f.do(http.MethodPost, "/api/redemptions/"+req.ID+"/resolve", f.parent, map[string]bool{"approve": true}, http.StatusConflict, nil)

	f.do(http.MethodGet, base+"/rewards/profile", f.child, nil, http.StatusOK, &profile)
	assert.Equal(t, 50, profile.CurrentPoints)

	var list []models.RedemptionRequest
	f.do(http.MethodGet, base+"/redemptions?status=rejected", f.parent, nil, http.StatusOK, &list)
	assert.Len(t, list, 1)
}

func TestReminderAndSettingsEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	base := "/api/children/" + f.childID

	reminder := map[string]interface{}{
		"medicationName": "Methylphenidate",
		"dosage":         "10mg",
		"times":          []string{"08:00"},
		"startDate":      "2026-01-01",
	}
	f.do(http.MethodPost, base+"/reminders", f.child, reminder, http.StatusForbidden, nil)

	var rem models.MedicationReminder
	f.do(http.MethodPost, base+"/reminders", f.parent, reminder, http.StatusCreated, &rem)
	assert.True(t, rem.IsActive)

	reminder["times"] = []string{"25:00"}
	f.do(http.MethodPut, "/api/reminders/"+rem.ID, f.parent, reminder, http.StatusBadRequest, nil)

	var settings models.MedicationSettings
	f.do(http.MethodGet, base+"/medication/settings", f.child, nil, http.StatusOK, &settings)
	assert.Equal(t, 5, settings.ReminderAdvanceMinutes)

	update := map[string]interface{}{
		"reminderAdvanceMinutes":  10,
		"allowChildToMarkTaken":   true,
		"enablePushNotifications": true,
		"missedDoseAlertMinutes":  45,
	}
	f.do(http.MethodPut, base+"/medication/settings", f.parent, update, http.StatusOK, &settings)
	assert.Equal(t, 10, settings.ReminderAdvanceMinutes)
	assert.Equal(t, 45, settings.MissedDoseAlertMinutes)

	var doses []models.MedicationDoseLog
	f.do(http.MethodGet, base+"/doses", f.parent, nil, http.StatusOK, &doses)
	assert.Empty(t, doses)

	f.do(http.MethodPost, "/api/doses/missing/mark", f.parent, map[string]string{"status": "taken"}, http.StatusNotFound, nil)
	f.do(http.MethodPost, "/api/doses/missing/mark", f.parent, map[string]string{"status": "pending"}, http.StatusBadRequest, nil)

	var report models.AdherenceReport
	f.do(http.MethodGet, base+"/adherence?days=3", f.parent, nil, http.StatusOK, &report)
	assert.Equal(t, 3, report.Days)
	assert.Len(t, report.Daily, 3)
}

func TestChildEventReachesParentInbox(t *testing.T) {
	f := newAPIFixture(t)

	f.do(http.MethodPost, "/api/children/"+f.childID+"/events", f.child, map[string]string{"type": "break_taken"}, http.StatusAccepted, nil)

	var count map[string]int
	f.do(http.MethodGet, "/api/notifications/unread-count", f.parent, nil, http.StatusOK, &count)
	assert.Equal(t, 1, count["count"])

	var list []models.Notification
	f.do(http.MethodGet, "/api/notifications?unread=true", f.parent, nil, http.StatusOK, &list)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotifyBreakTaken, list[0].Type)

	f.do(http.MethodPost, "/api/notifications/abc/read", f.parent, nil, http.StatusBadRequest, nil)
	f.do(http.MethodPost, "/api/notifications/"+strconv.FormatInt(list[0].ID, 10)+"/read", f.parent, nil, http.StatusOK, nil)
	f.do(http.MethodGet, "/api/notifications/unread-count", f.parent, nil, http.StatusOK, &count)
	assert.Equal(t, 0, count["count"])
}

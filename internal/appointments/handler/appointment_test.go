package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "consultly/pkg/errors"
	"consultly/pkg/logger"
	"consultly/pkg/middleware"
	"consultly/pkg/model"
)

type mockAppointmentService struct {
	getAvailabilityFunc func(ctx context.Context, caller model.Identity, consultantID, date string) ([]model.Slot, error)
	lockSlotFunc        func(ctx context.Context, caller model.Identity, req *model.LockSlotRequest) (*model.LockSlotResponse, error)
	releaseSlotFunc     func(ctx context.Context, caller model.Identity, consultantID, startAt string) error
	createFunc          func(ctx context.Context, caller model.Identity, req *model.CreateAppointmentRequest) (*model.Appointment, error)
	transitionFunc      func(ctx context.Context, caller model.Identity, id string) (*model.Appointment, error)
	listFunc            func(ctx context.Context, caller model.Identity) ([]*model.Appointment, error)
	readyFunc           func(ctx context.Context) error
}

func (m *mockAppointmentService) GetAvailability(ctx context.Context, caller model.Identity, consultantID, date string) ([]model.Slot, error) {
	if m.getAvailabilityFunc != nil {
		return m.getAvailabilityFunc(ctx, caller, consultantID, date)
	}
	return []model.Slot{}, nil
}

func (m *mockAppointmentService) LockSlot(ctx context.Context, caller model.Identity, req *model.LockSlotRequest) (*model.LockSlotResponse, error) {
	if m.lockSlotFunc != nil {
		return m.lockSlotFunc(ctx, caller, req)
	}
	return &model.LockSlotResponse{ExpiresIn: 300}, nil
}

func (m *mockAppointmentService) ReleaseSlot(ctx context.Context, caller model.Identity, consultantID, startAt string) error {
	if m.releaseSlotFunc != nil {
		return m.releaseSlotFunc(ctx, caller, consultantID, startAt)
	}
	return nil
}

func (m *mockAppointmentService) Create(ctx context.Context, caller model.Identity, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, caller, req)
	}
	return &model.Appointment{}, nil
}

func (m *mockAppointmentService) transition(ctx context.Context, caller model.Identity, id string) (*model.Appointment, error) {
	if m.transitionFunc != nil {
		return m.transitionFunc(ctx, caller, id)
	}
	return &model.Appointment{ID: id}, nil
}

func (m *mockAppointmentService) Accept(ctx context.Context, caller model.Identity, id string) (*model.Appointment, error) {
	return m.transition(ctx, caller, id)
}

func (m *mockAppointmentService) Reject(ctx context.Context, caller model.Identity, id string) (*model.Appointment, error) {
	return m.transition(ctx, caller, id)
}

func (m *mockAppointmentService) Cancel(ctx context.Context, caller model.Identity, id string) (*model.Appointment, error) {
	return m.transition(ctx, caller, id)
}

func (m *mockAppointmentService) Complete(ctx context.Context, caller model.Identity, id string) (*model.Appointment, error) {
	return m.transition(ctx, caller, id)
}

func (m *mockAppointmentService) list(ctx context.Context, caller model.Identity) ([]*model.Appointment, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, caller)
	}
	return []*model.Appointment{}, nil
}

func (m *mockAppointmentService) ClientAppointments(ctx context.Context, caller model.Identity) ([]*model.Appointment, error) {
	return m.list(ctx, caller)
}

func (m *mockAppointmentService) ClientHistory(ctx context.Context, caller model.Identity) ([]*model.Appointment, error) {
	return m.list(ctx, caller)
}

func (m *mockAppointmentService) ConsultantAppointments(ctx context.Context, caller model.Identity) ([]*model.Appointment, error) {
	return m.list(ctx, caller)
}

func (m *mockAppointmentService) ConsultantHistory(ctx context.Context, caller model.Identity) ([]*model.Appointment, error) {
	return m.list(ctx, caller)
}

func (m *mockAppointmentService) Ready(ctx context.Context) error {
	if m.readyFunc != nil {
		return m.readyFunc(ctx)
	}
	return nil
}

var (
	client     = model.Identity{ID: "client-1", Role: model.RoleClient}
	consultant = model.Identity{ID: "consultant-1", Role: model.RoleConsultant}
)

func newRouter(svc *mockAppointmentService) *httprouter.Router {
	router := httprouter.New()
	NewAppointmentHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target, body string, identity *model.Identity) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if identity != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), *identity))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestGetAvailability(t *testing.T) {
	start := time.Date(2026, 10, 19, 4, 30, 0, 0, time.UTC)
	var gotConsultant, gotDate string
	var gotCaller model.Identity
	svc := &mockAppointmentService{
		getAvailabilityFunc: func(_ context.Context, caller model.Identity, consultantID, date string) ([]model.Slot, error) {
			gotCaller, gotConsultant, gotDate = caller, consultantID, date
			return []model.Slot{{Start: start, End: start.Add(time.Hour), Status: model.SlotFree}}, nil
		},
	}

	rec := serve(newRouter(svc), http.MethodGet, "/appointment/availability/consultant-1?date=2026-10-19", "", &client)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, client, gotCaller)
	assert.Equal(t, "consultant-1", gotConsultant)
	assert.Equal(t, "2026-10-19", gotDate)

	var slots []model.Slot
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &slots))
	require.Len(t, slots, 1)
	assert.Equal(t, model.SlotFree, slots[0].Status)
}

func TestGetAvailability_MissingDate(t *testing.T) {
	called := false
	svc := &mockAppointmentService{
		getAvailabilityFunc: func(context.Context, model.Identity, string, string) ([]model.Slot, error) {
			called = true
			return nil, nil
		},
	}

	rec := serve(newRouter(svc), http.MethodGet, "/appointment/availability/consultant-1", "", &client)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidInput, decodeEnvelope(t, rec).Code)
	assert.False(t, called)
}

func TestLockSlot(t *testing.T) {
	var got *model.LockSlotRequest
	svc := &mockAppointmentService{
		lockSlotFunc: func(_ context.Context, _ model.Identity, req *model.LockSlotRequest) (*model.LockSlotResponse, error) {
			got = req
			return &model.LockSlotResponse{ExpiresIn: 300}, nil
		},
	}

	rec := serve(newRouter(svc), http.MethodPost, "/appointment/lock-slot",
		`{"consultantId":"consultant-1","startAt":"2026-10-19T04:30:00Z"}`, &client)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "consultant-1", got.ConsultantID)
	assert.Equal(t, "2026-10-19T04:30:00Z", got.StartAt)
	assert.JSONEq(t, `{"expiresIn":300}`, string(decodeEnvelope(t, rec).Data))
}

func TestLockSlot_Conflict(t *testing.T) {
	svc := &mockAppointmentService{
		lockSlotFunc: func(context.Context, model.Identity, *model.LockSlotRequest) (*model.LockSlotResponse, error) {
			return nil, apperrors.SlotLocked("Slot temporarily unavailable")
		},
	}

	rec := serve(newRouter(svc), http.MethodPost, "/appointment/lock-slot",
		`{"consultantId":"consultant-1","startAt":"2026-10-19T04:30:00Z"}`, &client)

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, apperrors.CodeSlotLocked, env.Code)
	assert.Equal(t, "Slot temporarily unavailable", env.Error)
}

func TestLockSlot_MalformedBody(t *testing.T) {
	rec := serve(newRouter(&mockAppointmentService{}), http.MethodPost, "/appointment/lock-slot", `{"consultantId":`, &client)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidInput, decodeEnvelope(t, rec).Code)
}

func TestReleaseSlot(t *testing.T) {
	var gotConsultant, gotStart string
	svc := &mockAppointmentService{
		releaseSlotFunc: func(_ context.Context, _ model.Identity, consultantID, startAt string) error {
			gotConsultant, gotStart = consultantID, startAt
			return nil
		},
	}
	router := newRouter(svc)

	rec := serve(router, http.MethodDelete, "/appointment/lock-slot?consultantId=consultant-1&startAt=2026-10-19T04:30:00Z", "", &client)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "consultant-1", gotConsultant)
	assert.Equal(t, "2026-10-19T04:30:00Z", gotStart)

	rec = serve(router, http.MethodDelete, "/appointment/lock-slot?consultantId=consultant-1", "", &client)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreate(t *testing.T) {
	start := time.Date(2026, 10, 19, 4, 30, 0, 0, time.UTC)
	svc := &mockAppointmentService{
		createFunc: func(_ context.Context, caller model.Identity, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
			return &model.Appointment{
				ID:           "a1",
				ConsultantID: req.ConsultantID,
				ClientID:     caller.ID,
				StartAt:      start,
				EndAt:        start.Add(time.Hour),
				Purpose:      req.Purpose,
				Status:       model.StatusPending,
			}, nil
		},
	}

	rec := serve(newRouter(svc), http.MethodPost, "/appointment/create",
		`{"consultantId":"consultant-1","startAt":"2026-10-19T04:30:00Z","endAt":"2026-10-19T05:30:00Z","purpose":"Tax review"}`, &client)

	require.Equal(t, http.StatusCreated, rec.Code)
	var appointment model.Appointment
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &appointment))
	assert.Equal(t, "a1", appointment.ID)
	assert.Equal(t, "client-1", appointment.ClientID)
	assert.Equal(t, "Tax review", appointment.Purpose)
	assert.Equal(t, model.StatusPending, appointment.Status)
}

func TestCreate_ServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"forbidden", apperrors.Forbidden("Only clients can create appointments"), http.StatusForbidden, apperrors.CodeForbidden},
		{"lock expired", apperrors.LockExpired("Slot lock expired. Please select slot again."), http.StatusConflict, apperrors.CodeLockExpired},
		{"already booked", apperrors.Conflict("Slot already booked"), http.StatusConflict, apperrors.CodeConflict},
		{"validation", apperrors.Validation("Invalid appointment", nil), http.StatusUnprocessableEntity, apperrors.CodeValidation},
		{"store down", apperrors.UnavailableWithCause("Appointment store", errors.New("dial tcp")), http.StatusServiceUnavailable, apperrors.CodeUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAppointmentService{
				createFunc: func(context.Context, model.Identity, *model.CreateAppointmentRequest) (*model.Appointment, error) {
					return nil, tt.err
				},
			}

			rec := serve(newRouter(svc), http.MethodPost, "/appointment/create", `{}`, &consultant)

			assert.Equal(t, tt.wantCode, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, tt.wantErr, env.Code)
			assert.NotContains(t, env.Error, "dial tcp")
		})
	}
}

func TestTransitions(t *testing.T) {
	for _, action := range []string{"accept", "reject", "cancel", "complete"} {
		t.Run(action, func(t *testing.T) {
			var gotID string
			svc := &mockAppointmentService{
				transitionFunc: func(_ context.Context, _ model.Identity, id string) (*model.Appointment, error) {
					gotID = id
					return &model.Appointment{ID: id, Status: model.StatusScheduled}, nil
				},
			}

			rec := serve(newRouter(svc), http.MethodPatch, "/appointment/"+action+"/a-42", "", &consultant)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "a-42", gotID)
		})
	}
}

func TestTransition_InvalidState(t *testing.T) {
	svc := &mockAppointmentService{
		transitionFunc: func(context.Context, model.Identity, string) (*model.Appointment, error) {
			return nil, apperrors.InvalidState("Only pending appointments allowed")
		},
	}

	rec := serve(newRouter(svc), http.MethodPatch, "/appointment/accept/a-42", "", &consultant)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidState, decodeEnvelope(t, rec).Code)
}

func TestListings(t *testing.T) {
	paths := []string{
		"/appointment/me",
		"/appointment/me/history",
		"/appointment/consultant",
		"/appointment/consultant/history",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			svc := &mockAppointmentService{
				listFunc: func(_ context.Context, caller model.Identity) ([]*model.Appointment, error) {
					return []*model.Appointment{{ID: "a1", ClientID: caller.ID}}, nil
				},
			}

			rec := serve(newRouter(svc), http.MethodGet, path, "", &client)

			require.Equal(t, http.StatusOK, rec.Code)
			var appointments []model.Appointment
			require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &appointments))
			require.Len(t, appointments, 1)
			assert.Equal(t, "client-1", appointments[0].ClientID)
		})
	}
}

func TestListings_EmptyIsArray(t *testing.T) {
	rec := serve(newRouter(&mockAppointmentService{}), http.MethodGet, "/appointment/me", "", &client)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(decodeEnvelope(t, rec).Data))
}

func TestMissingIdentity(t *testing.T) {
	router := newRouter(&mockAppointmentService{})

	requests := []struct{ method, path, body string }{
		{http.MethodGet, "/appointment/availability/consultant-1?date=2026-10-19", ""},
		{http.MethodPost, "/appointment/lock-slot", `{}`},
		{http.MethodPost, "/appointment/create", `{}`},
		{http.MethodPatch, "/appointment/cancel/a1", ""},
		{http.MethodGet, "/appointment/consultant", ""},
	}

	for _, r := range requests {
		rec := serve(router, r.method, r.path, r.body, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", r.method, r.path)
	}
}

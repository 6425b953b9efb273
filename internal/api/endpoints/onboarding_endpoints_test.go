package endpoints

import (
	"care-chat-backend/internal/api"
	"care-chat-backend/internal/api/middleware"
	"care-chat-backend/internal/dto"
	internaljwt "care-chat-backend/internal/jwt"
	"care-chat-backend/internal/model"
	"care-chat-backend/internal/queue"
	authsvc "care-chat-backend/internal/service/auth"
	onboardingsvc "care-chat-backend/internal/service/onboarding"
	"context"
	"net/http"
	"sync"
	"testing"
)

type onboardingTestRepository struct {
	mu    sync.Mutex
	forms map[string]model.OnboardingFormItem
}

func newOnboardingTestRepository() *onboardingTestRepository {
	return &onboardingTestRepository{forms: make(map[string]model.OnboardingFormItem)}
}

func (m *onboardingTestRepository) GetForm(ctx context.Context, userID string) (model.OnboardingFormItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	form, ok := m.forms[userID]
	if !ok {
		return model.OnboardingFormItem{}, onboardingsvc.ErrNotFound
	}
	return form, nil
}

func (m *onboardingTestRepository) PutForm(ctx context.Context, form model.OnboardingFormItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms[form.UserID] = form
	return nil
}

type recordingRoomCreator struct {
	mu      sync.Mutex
	created [][2]string
}

func (s *recordingRoomCreator) CreateRoom(ctx context.Context, patientID, doctorID string) (model.RoomItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, [2]string{patientID, doctorID})
	return model.RoomItem{RoomID: "room-1", PatientID: patientID, DoctorID: doctorID}, nil
}

func setupOnboardingHandler(t *testing.T) (http.Handler, *recordingRoomCreator, func()) {
	t.Helper()

	rooms := &recordingRoomCreator{}
	service := onboardingsvc.NewWithRepository(newOnboardingTestRepository(), rooms, fixedTime)
	authService := authsvc.NewWithRepository(newTestRepository(), fixedTime)

	onboardingEndpoints := &onboardingEndpoints{service: service, auth: authService}

	queueManager := queue.NewRequestQueueManager(10, 1)
	server := api.NewAPIServer(":0", queueManager, nil, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/onboarding/draft", server.MakeHTTPHandleFunc(onboardingEndpoints.Draft, middleware.ValidatePatientJWT))
	mux.HandleFunc("/api/onboarding/status", server.MakeHTTPHandleFunc(onboardingEndpoints.Status, middleware.ValidatePatientJWT))
	mux.HandleFunc("/api/onboarding/submit", server.MakeHTTPHandleFunc(onboardingEndpoints.Submit, middleware.ValidatePatientJWT))

	return mux, rooms, func() {
		queueManager.Shutdown()
	}
}

func completeIntakeForm() map[string]interface{} {
	return map[string]interface{}{
		"full_name":           "Pat Patient",
		"dob":                 "1990-03-14",
		"phone":               "555-0102",
		"emergency_name":      "Sam Sibling",
		"emergency_phone":     "555-0103",
		"blood_type":          "A+",
		"allergies":           []interface{}{"none"},
		"chronic_conditions":  "none",
		"insurance_provider":  "Acme Health",
		"insurance_id":        "ACME-1",
		"policy_holder":       "Pat Patient",
		"preferred_doctor_id": "doc-1",
	}
}

func TestOnboardingFlow(t *testing.T) {
	setupTestJWT(t)
	handler, rooms, cleanup := setupOnboardingHandler(t)
	defer cleanup()

	patientHeaders := bearerToken(t, "pat-1", internaljwt.RolePatient)

	status := doJSONRequest[dto.OnboardingStatusResponse](t, handler, http.MethodGet, "/api/onboarding/status", nil, patientHeaders, http.StatusOK)
	if status.Status != string(model.OnboardingStatusNew) || status.CurrentStep != 1 {
		t.Fatalf("expected fresh form, got %#v", status)
	}

	draft := doJSONRequest[dto.OnboardingStatusResponse](t, handler, http.MethodPost, "/api/onboarding/draft", dto.SaveDraftRequest{
		StepData:    map[string]interface{}{"full_name": "Pat Patient", "dob": "1990-03-14"},
		CurrentStep: 1,
	}, patientHeaders, http.StatusOK)
	if draft.Status != string(model.OnboardingStatusDraft) {
		t.Fatalf("expected draft status, got %s", draft.Status)
	}

	doJSONRequest[dto.OnboardingStatusResponse](t, handler, http.MethodPost, "/api/onboarding/draft", dto.SaveDraftRequest{
		StepData:    completeIntakeForm(),
		CurrentStep: 4,
	}, patientHeaders, http.StatusOK)

	status = doJSONRequest[dto.OnboardingStatusResponse](t, handler, http.MethodGet, "/api/onboarding/status", nil, patientHeaders, http.StatusOK)
	if status.CurrentStep != 4 || status.Data["full_name"] != "Pat Patient" {
		t.Fatalf("draft not resumed, got %#v", status)
	}

	submitResp := doJSONRequest[ApiMessageResponse](t, handler, http.MethodPost, "/api/onboarding/submit", nil, patientHeaders, http.StatusOK)
	if submitResp.Message == "" {
		t.Fatal("expected confirmation message")
	}

	if len(rooms.created) != 1 || rooms.created[0] != [2]string{"pat-1", "doc-1"} {
		t.Fatalf("expected room for pat-1/doc-1, got %v", rooms.created)
	}

	status = doJSONRequest[dto.OnboardingStatusResponse](t, handler, http.MethodGet, "/api/onboarding/status", nil, patientHeaders, http.StatusOK)
	if status.Status != string(model.OnboardingStatusSubmitted) {
		t.Fatalf("expected submitted status, got %s", status.Status)
	}
}

func TestOnboardingSubmitIncompleteForm(t *testing.T) {
	setupTestJWT(t)
	handler, rooms, cleanup := setupOnboardingHandler(t)
	defer cleanup()

	patientHeaders := bearerToken(t, "pat-1", internaljwt.RolePatient)

	doJSONRequest[dto.OnboardingStatusResponse](t, handler, http.MethodPost, "/api/onboarding/draft", dto.SaveDraftRequest{
		StepData:    map[string]interface{}{"full_name": "Pat Patient"},
		CurrentStep: 1,
	}, patientHeaders, http.StatusOK)

	doJSONRequest[api.ApiError](t, handler, http.MethodPost, "/api/onboarding/submit", nil, patientHeaders, http.StatusBadRequest)

	if len(rooms.created) != 0 {
		t.Fatal("no room may be created for an incomplete form")
	}
}

func TestOnboardingIsPatientOnly(t *testing.T) {
	setupTestJWT(t)
	handler, _, cleanup := setupOnboardingHandler(t)
	defer cleanup()

	doctorHeaders := bearerToken(t, "doc-1", internaljwt.RoleDoctor)
	doRawRequest(t, handler, http.MethodGet, "/api/onboarding/status", doctorHeaders, http.StatusUnauthorized)
	doRawRequest(t, handler, http.MethodGet, "/api/onboarding/status", nil, http.StatusUnauthorized)
}

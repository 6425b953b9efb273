package onboarding

import (
	"context"
	"strings"
	"time"

	"care-chat-backend/internal/database"
	"care-chat-backend/internal/model"
	chatservice "care-chat-backend/internal/service/chat"
)

type ErrorCode string

const (
	ErrorCodeValidation ErrorCode = "validation_error"
	ErrorCodeNotFound   ErrorCode = "not_found"
	ErrorCodeInternal   ErrorCode = "internal_error"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// RoomCreator pairs a patient with the doctor chosen on the intake form.
type RoomCreator interface {
	CreateRoom(ctx context.Context, patientID, doctorID string) (model.RoomItem, error)
}

type SaveDraftParams struct {
	UserID      string
	StepData    map[string]interface{}
	CurrentStep int
}

type Service struct {
	repo  Repository
	rooms RoomCreator
	now   func() time.Time
}

func New(db *database.Database) *Service {
	return &Service{
		repo:  NewDynamoRepository(db),
		rooms: chatservice.New(db),
		now:   time.Now,
	}
}

func NewWithRepository(repo Repository, rooms RoomCreator, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{
		repo:  repo,
		rooms: rooms,
		now:   now,
	}
}

// SaveDraft merges the step's fields over any previously saved draft data.
func (s *Service) SaveDraft(ctx context.Context, params SaveDraftParams) (model.OnboardingFormItem, error) {
	if len(params.StepData) == 0 {
		return model.OnboardingFormItem{}, newError(ErrorCodeValidation, "step data is required", nil)
	}

	data := params.StepData
	existing, err := s.repo.GetForm(ctx, params.UserID)
	if err == nil {
		merged := make(map[string]interface{}, len(existing.Data)+len(params.StepData))
		for k, v := range existing.Data {
			merged[k] = v
		}
		for k, v := range params.StepData {
			merged[k] = v
		}
		data = merged
	} else if err != ErrNotFound {
		return model.OnboardingFormItem{}, newError(ErrorCodeInternal, "failed to load existing draft", err)
	}

	form := model.OnboardingFormItem{
		UserID:      params.UserID,
		Data:        data,
		CurrentStep: params.CurrentStep,
		Status:      model.OnboardingStatusDraft,
		UpdatedAt:   s.now().UTC().Format(time.RFC3339),
	}

	if err := s.repo.PutForm(ctx, form); err != nil {
		return model.OnboardingFormItem{}, newError(ErrorCodeInternal, "failed to save draft", err)
	}

	return form, nil
}

// Status returns the user's form, or a fresh "new" form when none exists.
func (s *Service) Status(ctx context.Context, userID string) (model.OnboardingFormItem, error) {
	form, err := s.repo.GetForm(ctx, userID)
	if err == ErrNotFound {
		return model.OnboardingFormItem{
			UserID:      userID,
			Data:        map[string]interface{}{},
			CurrentStep: 1,
			Status:      model.OnboardingStatusNew,
		}, nil
	}
	if err != nil {
		return model.OnboardingFormItem{}, newError(ErrorCodeInternal, "failed to load form", err)
	}
	return form, nil
}

// Submit validates the accumulated form, marks it submitted, and assigns the
// preferred doctor by creating the patient/doctor room.
func (s *Service) Submit(ctx context.Context, userID string) error {
	form, err := s.repo.GetForm(ctx, userID)
	if err == ErrNotFound {
		return newError(ErrorCodeValidation, "no onboarding data found", err)
	}
	if err != nil {
		return newError(ErrorCodeInternal, "failed to load form", err)
	}

	if err := validate(form.Data, s.now()); err != nil {
		return err
	}

	form.Status = model.OnboardingStatusSubmitted
	form.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	if err := s.repo.PutForm(ctx, form); err != nil {
		return newError(ErrorCodeInternal, "failed to submit form", err)
	}

	doctorID, _ := form.Data["preferred_doctor_id"].(string)
	if _, err := s.rooms.CreateRoom(ctx, userID, doctorID); err != nil {
		return newError(ErrorCodeInternal, "failed to assign doctor", err)
	}

	return nil
}

// validate enforces the intake form's required fields across all steps.
func validate(data map[string]interface{}, now time.Time) error {
	fullName, _ := data["full_name"].(string)
	if len(strings.Fields(strings.TrimSpace(fullName))) < 2 {
		return newError(ErrorCodeValidation, "full name must be at least two words", nil)
	}

	dob, _ := data["dob"].(string)
	if !isAdult(dob, now) {
		return newError(ErrorCodeValidation, "must be 18 or older", nil)
	}

	if str(data, "phone") == "" {
		return newError(ErrorCodeValidation, "phone required", nil)
	}
	if str(data, "emergency_name") == "" || str(data, "emergency_phone") == "" {
		return newError(ErrorCodeValidation, "emergency contact required", nil)
	}

	if str(data, "blood_type") == "" {
		return newError(ErrorCodeValidation, "blood type required", nil)
	}
	if allergies, ok := data["allergies"].([]interface{}); !ok || len(allergies) == 0 {
		return newError(ErrorCodeValidation, "allergies selection required", nil)
	}
	if str(data, "chronic_conditions") == "" {
		return newError(ErrorCodeValidation, "chronic conditions required", nil)
	}

	if str(data, "insurance_provider") == "" || str(data, "insurance_id") == "" || str(data, "policy_holder") == "" {
		return newError(ErrorCodeValidation, "insurance details required", nil)
	}
	if str(data, "preferred_doctor_id") == "" {
		return newError(ErrorCodeValidation, "preferred doctor required", nil)
	}

	return nil
}

func str(data map[string]interface{}, key string) string {
	val, _ := data[key].(string)
	return strings.TrimSpace(val)
}

func isAdult(dob string, now time.Time) bool {
	if dob == "" {
		return false
	}
	born, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return false
	}
	return now.Year()-born.Year() >= 18
}

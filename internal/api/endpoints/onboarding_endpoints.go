package endpoints

import (
	"care-chat-backend/internal/database"
	"care-chat-backend/internal/dto"
	authsvc "care-chat-backend/internal/service/auth"
	onboardingsvc "care-chat-backend/internal/service/onboarding"
	"fmt"
	"net/http"
)

type OnboardingEndpoints interface {
	Draft(http.ResponseWriter, *http.Request) error
	Status(http.ResponseWriter, *http.Request) error
	Submit(http.ResponseWriter, *http.Request) error
}

type onboardingEndpoints struct {
	service *onboardingsvc.Service
	auth    *authsvc.Service
}

func NewOnboardingEndpoints(db *database.Database) OnboardingEndpoints {
	return &onboardingEndpoints{
		service: onboardingsvc.New(db),
		auth:    authsvc.New(db),
	}
}

func NewOnboardingEndpointsWithServices(service *onboardingsvc.Service, auth *authsvc.Service) OnboardingEndpoints {
	return &onboardingEndpoints{service: service, auth: auth}
}

func (h *onboardingEndpoints) Draft(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleDraft,
	})
}

func (h *onboardingEndpoints) Status(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleStatus,
	})
}

func (h *onboardingEndpoints) Submit(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleSubmit,
	})
}

func (h *onboardingEndpoints) handleDraft(w http.ResponseWriter, r *http.Request) error {
	identity, err := h.identity(r)
	if err != nil {
		return err
	}

	var req dto.SaveDraftRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	form, err := h.service.SaveDraft(r.Context(), onboardingsvc.SaveDraftParams{
		UserID:      identity.UserID,
		StepData:    req.StepData,
		CurrentStep: req.CurrentStep,
	})
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, dto.OnboardingStatusResponse{
		Status:      string(form.Status),
		CurrentStep: form.CurrentStep,
		Data:        form.Data,
		UpdatedAt:   form.UpdatedAt,
	})
}

func (h *onboardingEndpoints) handleStatus(w http.ResponseWriter, r *http.Request) error {
	identity, err := h.identity(r)
	if err != nil {
		return err
	}

	form, err := h.service.Status(r.Context(), identity.UserID)
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, dto.OnboardingStatusResponse{
		Status:      string(form.Status),
		CurrentStep: form.CurrentStep,
		Data:        form.Data,
		UpdatedAt:   form.UpdatedAt,
	})
}

func (h *onboardingEndpoints) handleSubmit(w http.ResponseWriter, r *http.Request) error {
	identity, err := h.identity(r)
	if err != nil {
		return err
	}

	if err := h.service.Submit(r.Context(), identity.UserID); err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, ApiMessageResponse{Message: "Form submitted and doctor assigned"})
}

func (h *onboardingEndpoints) identity(r *http.Request) (authsvc.Identity, error) {
	identity, err := h.auth.IdentityFromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return authsvc.Identity{}, &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Unauthorized",
			ErrorLog:   fmt.Errorf("onboarding identity: %w", err),
		}
	}
	return identity, nil
}

func (h *onboardingEndpoints) serviceError(err error) error {
	if err == nil {
		return nil
	}

	svcErr, ok := err.(*onboardingsvc.Error)
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("onboarding service: %w", err),
		}
	}

	status := http.StatusInternalServerError
	switch svcErr.Code {
	case onboardingsvc.ErrorCodeValidation:
		status = http.StatusBadRequest
	case onboardingsvc.ErrorCodeNotFound:
		status = http.StatusNotFound
	}

	return &HTTPError{
		StatusCode: status,
		Message:    svcErr.Message,
		ErrorLog:   fmt.Errorf("onboarding service: %w", err),
	}
}

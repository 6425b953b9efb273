package router

import (
	"care-chat-backend/internal/api"
	"care-chat-backend/internal/api/endpoints"
	"care-chat-backend/internal/api/middleware"
	"net/http"
)

func OnboardingRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		onboardingEndpoints := endpoints.NewOnboardingEndpoints(s.Database())

		mux.HandleFunc(prefix+"/onboarding/draft", s.MakeHTTPHandleFunc(onboardingEndpoints.Draft, middleware.ValidatePatientJWT))
		mux.HandleFunc(prefix+"/onboarding/status", s.MakeHTTPHandleFunc(onboardingEndpoints.Status, middleware.ValidatePatientJWT))
		mux.HandleFunc(prefix+"/onboarding/submit", s.MakeHTTPHandleFunc(onboardingEndpoints.Submit, middleware.ValidatePatientJWT))
	}
}

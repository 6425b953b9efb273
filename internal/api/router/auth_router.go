package router

import (
	"care-chat-backend/internal/api"
	"care-chat-backend/internal/api/endpoints"
	"care-chat-backend/internal/api/middleware"
	"net/http"
)

func AuthRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		authEndpoints := endpoints.NewAuthEndpoints(s.Database())

		mux.HandleFunc(prefix+"/auth/register", s.MakeHTTPHandleFunc(authEndpoints.Register))
		mux.HandleFunc(prefix+"/auth/login", s.MakeHTTPHandleFunc(authEndpoints.Login))
		mux.HandleFunc(prefix+"/auth/refresh", s.MakeHTTPHandleFunc(authEndpoints.Refresh))
		mux.HandleFunc(prefix+"/auth/me", s.MakeHTTPHandleFunc(authEndpoints.Me, middleware.ValidateAnyJWT))
		mux.HandleFunc(prefix+"/doctors", s.MakeHTTPHandleFunc(authEndpoints.Doctors, middleware.ValidateAnyJWT))
	}
}

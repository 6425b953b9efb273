package router

import (
	"care-chat-backend/internal/api"
	"care-chat-backend/internal/api/endpoints"
	"care-chat-backend/internal/api/middleware"
	"net/http"
)

func ChatRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		chatEndpoints := endpoints.NewChatEndpoints(s.Database(), s.Handler(), prefix)

		mux.HandleFunc(prefix+"/chat/rooms", s.MakeHTTPHandleFunc(chatEndpoints.Rooms, middleware.ValidateAnyJWT))
		mux.HandleFunc(prefix+"/chat/rooms/", s.MakeHTTPHandleFunc(chatEndpoints.RoomMessages, middleware.ValidateAnyJWT))
	}
}

// ChatSocketRoutes exposes the websocket handshake. Authentication happens
// inside the endpoint against the handshake token field, not the
// Authorization header, so no JWT middleware here.
func ChatSocketRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		chatEndpoints := endpoints.NewChatEndpoints(s.Database(), s.Handler(), prefix)

		mux.HandleFunc(prefix+"/chat/socket", s.MakeHTTPHandleFunc(chatEndpoints.Socket))
	}
}

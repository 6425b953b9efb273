package endpoints

import (
	"care-chat-backend/internal/database"
	"care-chat-backend/internal/dto"
	"care-chat-backend/internal/model"
	chatsvc "care-chat-backend/internal/service/chat"
	"care-chat-backend/internal/websocket"
	"fmt"
	"net/http"
	"strings"

	authsvc "care-chat-backend/internal/service/auth"
)

type ChatEndpoints interface {
	Rooms(http.ResponseWriter, *http.Request) error
	RoomMessages(http.ResponseWriter, *http.Request) error
	Socket(http.ResponseWriter, *http.Request) error
}

type ChatPaths struct {
	RoomsPath          string
	RoomMessagesPrefix string
	SocketPath         string
}

type chatEndpoints struct {
	service *chatsvc.Service
	auth    *authsvc.Service
	handler *websocket.Handler
	paths   ChatPaths
}

func NewChatEndpoints(db *database.Database, handler *websocket.Handler, prefix string) ChatEndpoints {
	base := strings.TrimRight(prefix, "/")
	return NewChatEndpointsWithServices(chatsvc.New(db), authsvc.New(db), handler, ChatPaths{
		RoomsPath:          base + "/chat/rooms",
		RoomMessagesPrefix: base + "/chat/rooms/",
		SocketPath:         base + "/chat/socket",
	})
}

func NewChatEndpointsWithServices(service *chatsvc.Service, auth *authsvc.Service, handler *websocket.Handler, paths ChatPaths) ChatEndpoints {
	return &chatEndpoints{
		service: service,
		auth:    auth,
		handler: handler,
		paths:   paths,
	}
}

func (h *chatEndpoints) Rooms(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet:  h.handleListRooms,
		http.MethodPost: h.handleCreateRoom,
	})
}

func (h *chatEndpoints) RoomMessages(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleHistory,
	})
}

// Socket authenticates the handshake and hands the request to the websocket
// layer. The token travels as a query field, not an Authorization header; a
// bad token refuses the upgrade outright.
func (h *chatEndpoints) Socket(w http.ResponseWriter, r *http.Request) error {
	identity, err := websocket.Authenticate(r.URL.Query().Get("token"))
	if err != nil {
		return &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Authentication error",
			ErrorLog:   fmt.Errorf("socket handshake: %w", err),
		}
	}

	h.handler.Connect(w, r, identity)
	return nil
}

func (h *chatEndpoints) handleListRooms(w http.ResponseWriter, r *http.Request) error {
	identity, err := h.identity(r)
	if err != nil {
		return err
	}

	summaries, err := h.service.ListRooms(r.Context(), identity)
	if err != nil {
		return h.serviceError(err)
	}

	res := make([]dto.RoomResponse, 0, len(summaries))
	for _, summary := range summaries {
		res = append(res, toRoomResponse(summary))
	}

	return WriteJSON(w, http.StatusOK, res)
}

func (h *chatEndpoints) handleCreateRoom(w http.ResponseWriter, r *http.Request) error {
	var req dto.CreateRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	room, err := h.service.CreateRoom(r.Context(), req.PatientID, req.DoctorID)
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, toRoomResponse(chatsvc.RoomSummary{Room: room}))
}

func (h *chatEndpoints) handleHistory(w http.ResponseWriter, r *http.Request) error {
	identity, err := h.identity(r)
	if err != nil {
		return err
	}

	roomID := strings.Trim(strings.TrimPrefix(r.URL.Path, h.paths.RoomMessagesPrefix), "/")
	roomID = strings.TrimSuffix(roomID, "/messages")
	if roomID == "" {
		return &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Room not found",
			ErrorLog:   fmt.Errorf("history room id missing"),
		}
	}

	messages, err := h.service.History(r.Context(), identity, roomID)
	if err != nil {
		return h.serviceError(err)
	}

	res := make([]dto.MessageResponse, 0, len(messages))
	for _, message := range messages {
		res = append(res, toMessageResponse(message))
	}

	return WriteJSON(w, http.StatusOK, res)
}

func (h *chatEndpoints) identity(r *http.Request) (chatsvc.Identity, error) {
	identity, err := h.auth.IdentityFromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return chatsvc.Identity{}, &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Unauthorized",
			ErrorLog:   fmt.Errorf("chat identity: %w", err),
		}
	}
	return chatsvc.Identity{UserID: identity.UserID, Role: identity.Role}, nil
}

func (h *chatEndpoints) serviceError(err error) error {
	if err == nil {
		return nil
	}

	svcErr, ok := err.(*chatsvc.Error)
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("chat service: %w", err),
		}
	}

	status := http.StatusInternalServerError
	switch svcErr.Code {
	case chatsvc.ErrorCodeValidation:
		status = http.StatusBadRequest
	case chatsvc.ErrorCodeForbidden:
		status = http.StatusForbidden
	case chatsvc.ErrorCodeNotFound:
		status = http.StatusNotFound
	}

	return &HTTPError{
		StatusCode: status,
		Message:    svcErr.Message,
		ErrorLog:   fmt.Errorf("chat service: %w", err),
	}
}

func toRoomResponse(summary chatsvc.RoomSummary) dto.RoomResponse {
	return dto.RoomResponse{
		ID:          summary.Room.RoomID,
		PatientID:   summary.Room.PatientID,
		DoctorID:    summary.Room.DoctorID,
		PatientName: summary.PatientName,
		DoctorName:  summary.DoctorName,
		UnreadCount: summary.UnreadCount,
		CreatedAt:   summary.Room.CreatedAt,
	}
}

func toMessageResponse(message model.MessageItem) dto.MessageResponse {
	return dto.MessageResponse{
		ID:         message.MessageID,
		RoomID:     message.RoomID,
		SenderID:   message.SenderID,
		SenderName: message.SenderName,
		Content:    message.Content,
		CreatedAt:  message.CreatedAt,
		ReadStatus: message.ReadStatus,
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := jsonDecode(r, v); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode request: %w", err),
		}
	}
	return nil
}

package websocket

import "care-chat-backend/internal/model"

// Server to client events.
const (
	EventUserStatus          = "user_status"
	EventOnlineUsers         = "online_users"
	EventReceiveMessage      = "receive_message"
	EventMessageNotification = "message_notification"
	EventUserTyping          = "user_typing"
)

// Client to server events.
const (
	EventJoinRoom    = "join_room"
	EventSendMessage = "send_message"
	EventTyping      = "typing"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

type ServerEvent struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type ClientEvent struct {
	Event    string `json:"event"`
	RoomID   string `json:"roomId"`
	Content  string `json:"content"`
	IsTyping bool   `json:"isTyping"`
}

type UserStatusRes struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type MessageRes struct {
	ID         string `json:"id"`
	RoomID     string `json:"roomId"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Content    string `json:"content"`
	CreatedAt  string `json:"createdAt"`
	ReadStatus bool   `json:"readStatus"`
}

type MessageNotificationRes struct {
	RoomID   string `json:"roomId"`
	SenderID string `json:"senderId"`
}

type UserTypingRes struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

func toMessageRes(item model.MessageItem) MessageRes {
	return MessageRes{
		ID:         item.MessageID,
		RoomID:     item.RoomID,
		SenderID:   item.SenderID,
		SenderName: item.SenderName,
		Content:    item.Content,
		CreatedAt:  item.CreatedAt,
		ReadStatus: item.ReadStatus,
	}
}

package websocket

import (
	"context"
	"log"

	"care-chat-backend/internal/model"
)

// MessagePersister stores a chat message and returns the stored record with
// the server-assigned id, timestamp and resolved sender name.
type MessagePersister interface {
	InsertMessage(ctx context.Context, roomID, senderID, content string) (model.MessageItem, error)
}

type joinReq struct {
	client *Client
	roomID string
}

type delivery struct {
	sender  *Client
	message model.MessageItem
}

type typingReq struct {
	origin   *Client
	roomID   string
	isTyping bool
}

type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	Join       chan joinReq
	Deliver    chan delivery
	Typing     chan typingReq

	persister MessagePersister

	// Optional tap for persisted messages, consumed outside this process.
	Publish func(roomID string, payload interface{}) error

	// Owned by Run; never touched from other goroutines.
	rooms    map[string]map[*Client]bool
	clients  map[*Client]bool
	presence *Presence
}

func NewHub(persister MessagePersister) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Join:       make(chan joinReq),
		Deliver:    make(chan delivery),
		Typing:     make(chan typingReq),
		persister:  persister,
		rooms:      make(map[string]map[*Client]bool),
		clients:    make(map[*Client]bool),
		presence:   NewPresence(),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			incConnections()

			first := h.presence.Register(client.UserID, client.ID)
			if first {
				h.broadcastAll(&ServerEvent{
					Event:   EventUserStatus,
					Payload: UserStatusRes{UserID: client.UserID, Status: StatusOnline},
				})
				setOnlineUsers(len(h.presence.Snapshot()))
			}

			h.send(client, &ServerEvent{
				Event:   EventOnlineUsers,
				Payload: h.presence.Snapshot(),
			})

		case client := <-h.Unregister:
			h.drop(client)

		case req := <-h.Join:
			if !h.clients[req.client] {
				continue
			}
			room, ok := h.rooms[req.roomID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[req.roomID] = room
				setRooms(len(h.rooms))
			}
			// Joining twice is a no-op.
			room[req.client] = true

		case d := <-h.Deliver:
			room, ok := h.rooms[d.message.RoomID]
			if !ok {
				continue
			}

			messageEvent := &ServerEvent{
				Event:   EventReceiveMessage,
				Payload: toMessageRes(d.message),
			}
			notifyEvent := &ServerEvent{
				Event: EventMessageNotification,
				Payload: MessageNotificationRes{
					RoomID:   d.message.RoomID,
					SenderID: d.message.SenderID,
				},
			}

			delivered := 0
			for client := range room {
				if h.send(client, messageEvent) {
					delivered++
				}
			}
			// The unread hint skips the originating connection; the sender's
			// own UI already shows the echoed message.
			for client := range room {
				if client != d.sender {
					h.send(client, notifyEvent)
				}
			}
			if delivered > 0 {
				addDelivered(delivered)
			}

		case req := <-h.Typing:
			room, ok := h.rooms[req.roomID]
			if !ok {
				continue
			}
			event := &ServerEvent{
				Event: EventUserTyping,
				Payload: UserTypingRes{
					UserID:   req.origin.UserID,
					IsTyping: req.isTyping,
				},
			}
			for client := range room {
				if client != req.origin {
					h.send(client, event)
				}
			}
		}
	}
}

// SendMessage persists the content and, on success, hands the stored record
// to the fan-out loop. Called from a connection's read goroutine, so sends
// from one connection are persisted in submission order; fan-out across
// connections follows persistence-completion order. A failed insert is
// logged and produces no events.
func (h *Hub) SendMessage(ctx context.Context, client *Client, roomID, content string) {
	if roomID == "" || content == "" {
		return
	}

	message, err := h.persister.InsertMessage(ctx, roomID, client.UserID, content)
	if err != nil {
		log.Printf("send message from %s to room %s failed: %v", client.UserID, roomID, err)
		return
	}

	if h.Publish != nil {
		if err := h.Publish(roomID, toMessageRes(message)); err != nil {
			log.Printf("publish message %s: %v", message.MessageID, err)
		}
	}

	h.Deliver <- delivery{sender: client, message: message}
}

// send queues an event for one client, evicting it if its buffer is full.
// Reports whether the event was queued.
func (h *Hub) send(client *Client, event *ServerEvent) bool {
	if !h.clients[client] {
		return false
	}
	select {
	case client.Message <- event:
		return true
	default:
		h.drop(client)
		return false
	}
}

// drop removes the client from the hub, every room, and the presence
// registry, broadcasting the offline transition when it held the user's
// last connection. Safe to call twice for the same client.
func (h *Hub) drop(client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	close(client.Message)
	decConnections()

	for roomID, room := range h.rooms {
		if room[client] {
			delete(room, client)
		}
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
	setRooms(len(h.rooms))

	last := h.presence.Unregister(client.UserID, client.ID)
	if last {
		h.broadcastAll(&ServerEvent{
			Event:   EventUserStatus,
			Payload: UserStatusRes{UserID: client.UserID, Status: StatusOffline},
		})
		setOnlineUsers(len(h.presence.Snapshot()))
	}
}

// broadcastAll sends a global event to every connected client, regardless of
// room membership.
func (h *Hub) broadcastAll(event *ServerEvent) {
	for client := range h.clients {
		h.send(client, event)
	}
}

package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Client struct {
	Conn     *websocket.Conn
	Message  chan *ServerEvent
	ID       string // connection id, unique per socket
	UserID   string
	Role     string
	done     chan struct{} // Signal for coordinating goroutine shutdown
	mu       sync.Mutex    // Mutex for connection access
	isClosed bool          // Flag to track connection state
}

func (cl *Client) keepAlive() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			cl.mu.Lock()
			if cl.isClosed {
				cl.mu.Unlock()
				return
			}
			err := cl.Conn.WriteMessage(websocket.PingMessage, nil)
			cl.mu.Unlock()

			if err != nil {
				log.Printf("Ping error for connection %s: %v", cl.ID, err)
				return
			}
		}
	}
}

func (cl *Client) writeMessage() {
	defer func() {
		cl.mu.Lock()
		cl.isClosed = true
		cl.Conn.Close()
		cl.mu.Unlock()
	}()

	for {
		select {
		case <-cl.done:
			return
		case event, ok := <-cl.Message:
			if !ok {
				log.Printf("Connection %s event channel closed", cl.ID)
				return
			}

			cl.mu.Lock()
			if cl.isClosed {
				cl.mu.Unlock()
				return
			}
			err := cl.Conn.WriteJSON(event)
			cl.mu.Unlock()

			if err != nil {
				log.Printf("Error sending event to connection %s: %v", cl.ID, err)
				return
			}
		}
	}
}

// readMessage handles one connection's inbound events sequentially until the
// socket closes. Malformed or unknown events are ignored.
func (cl *Client) readMessage(hub *Hub) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in readMessage: %v", r)
		}

		if cl.done != nil {
			close(cl.done)
		}

		hub.Unregister <- cl
		log.Printf("User %s disconnected (connection %s)", cl.UserID, cl.ID)
	}()

	cl.Conn.SetReadLimit(512 * 1024) // Set a reasonable read limit

	for {
		_, raw, err := cl.Conn.ReadMessage()
		if err != nil {
			if closeErr, ok := err.(*websocket.CloseError); ok {
				if closeErr.Code == websocket.CloseNormalClosure ||
					closeErr.Code == websocket.CloseGoingAway ||
					closeErr.Code == websocket.CloseNoStatusReceived {
					break
				}
			}
			log.Printf("Error reading from connection %s: %v", cl.ID, err)
			break
		}

		var event ClientEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			continue
		}

		switch event.Event {
		case EventJoinRoom:
			if event.RoomID == "" {
				continue
			}
			hub.Join <- joinReq{client: cl, roomID: event.RoomID}

		case EventSendMessage:
			hub.SendMessage(context.Background(), cl, event.RoomID, event.Content)

		case EventTyping:
			if event.RoomID == "" {
				continue
			}
			hub.Typing <- typingReq{origin: cl, roomID: event.RoomID, isTyping: event.IsTyping}
		}
	}
}

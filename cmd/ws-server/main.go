package main

import (
	"care-chat-backend/internal/api"
	"care-chat-backend/internal/api/router"
	"care-chat-backend/internal/database"
	"care-chat-backend/internal/env"
	"care-chat-backend/internal/queue"
	chatservice "care-chat-backend/internal/service/chat"
	"care-chat-backend/internal/websocket"
	"log"
)

func main() {
	env.Check()

	queueManager := queue.NewRequestQueueManager(10, 10)
	db, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}

	hub := websocket.NewHub(chatservice.New(db))
	go hub.Run()
	handler := websocket.NewHandler(hub)

	server := api.NewAPIServer(
		":83",
		queueManager,
		db,
		handler,
		router.UtilsRoutes("/api/ws/v1"),
		router.ChatSocketRoutes("/api/ws/v1"),
	)

	server.Run()
}

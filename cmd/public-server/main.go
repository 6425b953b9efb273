package main

import (
	"care-chat-backend/internal/api"
	"care-chat-backend/internal/api/router"
	"care-chat-backend/internal/database"
	"care-chat-backend/internal/env"
	"care-chat-backend/internal/queue"
	"log"
)

func main() {
	env.Check()

	queueManager := queue.NewRequestQueueManager(10, 10)
	db, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}

	server := api.NewAPIServer(
		":82",
		queueManager,
		db,
		nil,
		router.UtilsRoutes("/api/public/v1"),
		router.AuthRoutes("/api/public/v1"),
		router.OnboardingRoutes("/api/public/v1"),
		router.ChatRoutes("/api/public/v1"),
	)

	server.Run()
}

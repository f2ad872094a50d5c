package main

import (
	"autopress/cmd/handlers"
	"autopress/internal/logger"
)

func main() {
	logger.Init() // Initialize the logger
	handlers.Execute()
}

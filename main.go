package main

import (
	"github.com/wfunc/officeserver/config"
	"github.com/wfunc/officeserver/logger"
	"github.com/wfunc/officeserver/persistence"
	"github.com/wfunc/officeserver/registry"
	"github.com/wfunc/officeserver/room"
	"github.com/wfunc/officeserver/server"
	"github.com/wfunc/officeserver/services"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// The whiteboard reservation registry is process-scoped and injected
	// into every room through the server.
	boards := registry.NewWhiteboardRegistry()

	var (
		archiver       room.Archiver
		studentService *services.StudentService
	)
	if cfg.Database.Enabled {
		pg := cfg.Database.Postgres

		chatStore, err := persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		if err != nil {
			logger.Log.Fatalf("Failed to connect to the chat archive: %v", err)
		}
		chatService := services.NewChatService(chatStore)
		defer chatService.Stop()
		archiver = chatService

		roster, err := persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		if err != nil {
			logger.Log.Fatalf("Failed to connect to the student roster: %v", err)
		}
		studentService = services.NewStudentService(roster)
		logger.Log.Info("Database connection successful.")
	} else {
		logger.Log.Info("Database disabled, running without chat archive and roster.")
	}

	// Initialize Office Server
	officeServer := server.NewOfficeServer(cfg, boards, archiver, studentService)

	// Start Server
	logger.Log.Infof("Starting office server on %s", cfg.Server.HTTPAddress)
	if err := officeServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}

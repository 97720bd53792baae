package main

import (
	"fmt"

	"gorm.io/gorm"

	"protaskinate/internal/auth"
	"protaskinate/internal/config"
	"protaskinate/internal/repository"
	"protaskinate/internal/service"
)

// app holds the wired services shared by the commands.
type app struct {
	cfg        config.Config
	db         *gorm.DB
	tokens     *auth.Issuer
	users      *service.UserService
	tasks      *service.TaskService
	boards     *service.BoardService
	categories *service.CategoryService
	reminders  *service.ReminderService
	hub        *service.Hub
	dispatcher *service.TriggerDispatcher
}

func newApp(cfg config.Config) (*app, error) {
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	eventRepo := repository.NewEventRepository(db)

	hub := service.NewHub(taskRepo)
	trigger := service.NewRecurrenceTrigger(taskRepo, cfg.FallbackTimeZone, hub)
	dispatcher := service.NewTriggerDispatcher(eventRepo, trigger)
	taskSvc := service.NewTaskService(taskRepo, dispatcher, hub)
	categorySvc := service.NewCategoryService(categoryRepo)

	return &app{
		cfg:        cfg,
		db:         db,
		tokens:     auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		users:      service.NewUserService(userRepo, categorySvc),
		tasks:      taskSvc,
		boards:     service.NewBoardService(taskSvc),
		categories: categorySvc,
		reminders:  service.NewReminderService(taskSvc),
		hub:        hub,
		dispatcher: dispatcher,
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

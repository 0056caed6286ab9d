package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/globetrotter/tour-platform/internal/api"
	"github.com/globetrotter/tour-platform/internal/config"
	"github.com/globetrotter/tour-platform/internal/db"
	"github.com/globetrotter/tour-platform/internal/meeting"
	"github.com/globetrotter/tour-platform/internal/model"
	"github.com/globetrotter/tour-platform/internal/notify"
	"github.com/globetrotter/tour-platform/internal/refresh"
	"github.com/globetrotter/tour-platform/internal/repository"
	"github.com/globetrotter/tour-platform/internal/service"
)

func main() {
	// 1. Load configuration from the environment.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// 2. Connect to the database through GORM.
	gormDB, err := db.NewGormDB(&cfg.DB)
	if err != nil {
		log.Fatalf("init db: %v", err)
	}

	// 3. Migrate the models and install the postgres exclusion constraints.
	if err := model.AutoMigrate(gormDB); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	if err := db.ApplyPostgresConstraints(gormDB); err != nil {
		log.Fatalf("apply constraints: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("sql DB: %v", err)
	}
	defer sqlDB.Close()

	// 4. License pool from the configured meeting accounts.
	licenses := repository.NewGormLicenseRepository(gormDB)
	if len(cfg.MeetingUserIDs) > 0 {
		if err := licenses.EnsurePool(context.Background(), cfg.MeetingUserIDs); err != nil {
			log.Fatalf("ensure license pool: %v", err)
		}
	} else {
		log.Println("MEETING_USER_IDS is empty, license pool unchanged")
	}

	// 5. Meeting provisioning client.
	meetings := meeting.NewClient(meeting.Config{
		BaseURL:      cfg.MeetingBaseURL,
		APIKey:       cfg.MeetingAPIKey,
		APISecret:    cfg.MeetingAPISecret,
		PasswordSeed: cfg.MeetingPasswordSeed,
	})

	// 6. Notification dispatcher. For now deliveries just get logged.
	dispatcher := notify.NewDispatcher(notify.LogSender{}, cfg.NotifyQueueSize)
	dispatcher.Start()

	// 7. Services and the background next-event recomputation.
	nextEvents := service.NewNextEventService(gormDB)
	scheduler := refresh.NewScheduler(nextEvents, time.Duration(cfg.RefreshIntervalMin)*time.Minute)

	events := service.NewEventService(gormDB, meetings, dispatcher, scheduler)
	registrations := service.NewRegistrationService(gormDB, events, dispatcher, nil)
	deleter := service.NewSoftDeleteService(gormDB, dispatcher, scheduler)

	if err := scheduler.Start(); err != nil {
		log.Fatalf("start refresh scheduler: %v", err)
	}

	// 8. HTTP API.
	router := api.NewRouter(api.Services{
		DB:            gormDB,
		Events:        events,
		Registrations: registrations,
		NextEvents:    nextEvents,
		Deleter:       deleter,
	})
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("tour platform core listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("http serve: %v", err)
		}
	}()

	// 9. Graceful shutdown on signal.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	scheduler.Stop()
	dispatcher.Stop()
}

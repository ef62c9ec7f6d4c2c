package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/gym_studio/configs"
	"github.com/anjiri1684/gym_studio/database"
	"github.com/anjiri1684/gym_studio/handlers"
	"github.com/anjiri1684/gym_studio/jobs"
	"github.com/anjiri1684/gym_studio/metrics"
	"github.com/anjiri1684/gym_studio/notifications"
	"github.com/anjiri1684/gym_studio/routes"
	"github.com/anjiri1684/gym_studio/services"
	"github.com/anjiri1684/gym_studio/websocket"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg := config.MustLoad()
	log := config.SetupLogger(cfg.Env)
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Error("🔥 Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		log.Error("🔥 Failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := database.SeedAdmin(db, cfg.Admin, log); err != nil {
		log.Error("🔥 Failed to seed admin", slog.Any("error", err))
		os.Exit(1)
	}

	var cache services.Cache
	if cfg.Cache.RedisURL != "" {
		rc, err := services.NewRedisCache(cfg.Cache.RedisURL, log)
		if err != nil {
			log.Warn("⚠️ Redis unavailable, schedule cache disabled", slog.Any("error", err))
		} else {
			defer rc.Close()
			cache = rc
		}
	}

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	notifyOpts := []notifications.Option{notifications.WithPusher(hub)}
	if mailer := notifications.NewBrevoClient(cfg.Email, log); mailer != nil {
		notifyOpts = append(notifyOpts, notifications.WithMailer(mailer))
	}
	if cfg.AMQP.URL != "" {
		publisher, err := notifications.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Warn("⚠️ RabbitMQ unavailable, events disabled", slog.Any("error", err))
		} else {
			defer publisher.Close()
			notifyOpts = append(notifyOpts, notifications.WithPublisher(publisher))
			log.Info("✅ RabbitMQ publisher connected", slog.String("exchange", cfg.AMQP.Exchange))
		}
	}
	notifier := notifications.NewService(db, log, notifyOpts...)

	svc := services.New(services.Deps{
		DB:       db,
		Cache:    cache,
		CacheTTL: cfg.Cache.TTL,
		Notifier: notifier,
		Log:      log,
	})

	var statements *services.StatementService
	if cfg.CloudinaryURL != "" {
		store, err := services.NewCloudinaryStore(cfg.CloudinaryURL, "gym_studio/statements")
		if err != nil {
			log.Warn("⚠️ Cloudinary unavailable, statements disabled", slog.Any("error", err))
		} else {
			statements = services.NewStatementService(svc.Credits, services.ChromePDF{}, store, log)
		}
	}

	scheduler := cron.New()
	scheduled := []struct {
		spec string
		job  jobs.Job
	}{
		{cfg.Jobs.ReminderSpec, jobs.NewReminderJob(db, notifier, log)},
		{cfg.Jobs.PassExpirySpec, jobs.PassExpiryJob{Credits: svc.Credits}},
		{cfg.Jobs.AttendanceSpec, jobs.AttendanceJob{Bookings: svc.Bookings}},
	}
	for _, s := range scheduled {
		if err := jobs.Schedule(ctx, scheduler, s.spec, s.job, log); err != nil {
			log.Error("🔥 Failed to schedule job", slog.Any("error", err))
			os.Exit(1)
		}
	}
	scheduler.Start()

	h := handlers.New(handlers.Deps{
		Services:      svc,
		Statements:    statements,
		Notifications: notifier,
		Clients:       hub,
		Auth:          handlers.AuthConfig{Secret: cfg.JWT.Secret, TTL: cfg.JWT.TTL},
		Log:           log,
	})
	app := routes.NewApp(cfg.HTTP, log, true)
	routes.Setup(app, h, cfg.JWT.Secret)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("✅ Server is running", slog.String("addr", cfg.HTTP.Addr))
		serverErr <- app.Listen(cfg.HTTP.Addr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("🔥 Server failed", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("error", err))
	}
	<-scheduler.Stop().Done()
	notifier.Wait()
	log.Info("✅ Shutdown complete")
}

// File: arctech/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arctech/config"
	"arctech/cron"
	"arctech/database"
	appointmentRepo "arctech/database/repository/appointment"
	firestoreRepo "arctech/database/repository/firestoredoc"
	"arctech/handlers"
	"arctech/middleware"
	"arctech/routes"
	"arctech/services/appointment"
	"arctech/services/changefeed"
	"arctech/services/notification"
	"arctech/services/reminder"
	"arctech/utils"

	"firebase.google.com/go/v4/messaging"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// Document service.
	var (
		docs        appointment.DocumentService
		mongoClient *mongo.Client
		redisClient *redis.Client
	)
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		app, err := utils.FirebaseInit(rootCtx)
		if err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		fsClient, err := app.Firestore(rootCtx)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize firestore: %v", err)
		}
		repo := firestoreRepo.NewFirestoreAppointmentRepo(fsClient, logger)
		defer repo.Close()
		docs = repo
	default:
		client, err := database.InitDB()
		if err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		mongoClient = client
		defer database.CloseDB(context.Background())

		var feed appointmentRepo.ChangeFeed
		if cfg.ChangeFeed == config.FeedRedis {
			if err := utils.InitRedis(); err != nil {
				logger.Sugar().Fatalf("main: %v", err)
			}
			redisClient = utils.GetChangesClient()
			defer redisClient.Close()
			feed = changefeed.NewRedisFeed(redisClient, cfg.RedisChannelPrefix, logger)
		}
		repo := appointmentRepo.NewMongoAppointmentRepo(client, cfg.DatabaseName, feed, logger)
		if cfg.DatabaseAutoMigrate {
			if err := repo.EnsureCollection(rootCtx, cfg.AppointmentsCollection); err != nil {
				logger.Sugar().Fatalf("main: %v", err)
			}
		}
		docs = repo
	}

	// Health monitor.
	monitor := utils.NewHealthMonitor(mongoClient, redisClient, logger)
	if err := monitor.Start(cfg.HealthCheckSchedule); err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	defer monitor.Stop()

	// Push notifications.
	var fcm *messaging.Client
	if utils.FirebaseConfigured() {
		app := utils.FirebaseApp
		if app == nil {
			var err error
			if app, err = utils.FirebaseInit(rootCtx); err != nil {
				logger.Sugar().Fatalf("main: %v", err)
			}
		}
		client, err := app.Messaging(rootCtx)
		if err != nil {
			logger.Warn("main: FCM unavailable, pushes disabled", zap.Error(err))
		} else {
			fcm = client
		}
	}
	notifier := notification.NewDefaultNotificationService(fcm, cfg.FCMTopic, cfg.Location(), logger)

	// Reminders.
	var reminders appointment.ReminderScheduler
	if cfg.RemindersEnabled {
		queueOpts := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisReminderQueueDB,
		}
		reminders = reminder.NewScheduler(queueOpts, cfg.ReminderLead(), logger)
		worker := cron.NewReminderWorker(queueOpts, notifier, logger)
		worker.Start()
		defer worker.Shutdown()
	}

	// Controller.
	store := appointment.NewRemoteStore(docs, cfg.AppointmentsCollection, logger)
	controller := appointment.NewController(store, appointment.ControllerOptions{
		Location:  cfg.Location(),
		WeekStart: cfg.WeekStartDay(),
		Reminders: reminders,
		Announcer: notifier,
		Logger:    logger,
	})
	controller.Start(rootCtx)
	defer controller.Close()

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	limiter := middleware.NewRateLimiter(cfg.MaxRequestsPerMin, middleware.DefaultLimiterIdle)
	if err := monitor.Every("@every 1m", limiter.Sweep); err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	router.Use(limiter.Middleware())

	appointmentHandler := handlers.NewAppointmentHandler(controller, logger)
	calendarHandler := handlers.NewCalendarHandler(controller)
	handlerBundle := handlers.NewHandlerBundle(appointmentHandler, calendarHandler, handlers.HealthHandler(monitor))

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	// Ends open event streams so Shutdown does not wait on them.
	controller.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

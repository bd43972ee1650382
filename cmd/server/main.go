package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/scicent/backend/internal/config"
	"github.com/scicent/backend/internal/database"
	"github.com/scicent/backend/internal/handlers"
	"github.com/scicent/backend/internal/jobs"
	"github.com/scicent/backend/internal/middleware"
	"github.com/scicent/backend/internal/queue"
	"github.com/scicent/backend/internal/routes"
	"github.com/scicent/backend/internal/services/commission"
	"github.com/scicent/backend/internal/services/ledger"
	"github.com/scicent/backend/internal/services/referral"
	"github.com/scicent/backend/internal/services/task"
	"github.com/scicent/backend/internal/services/volunteer"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()

	// Initialize database
	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Invalid Redis URL: %v", err)
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	redisOpts.DB = cfg.Redis.DB
	redisClient := redis.NewClient(redisOpts)

	ctx := context.Background()
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Create Redis-backed queue and the adapter services dispatch through
	redisQueue := queue.NewRedisQueue(redisClient, db)
	queueAdapter := queue.NewQueueAdapter(redisQueue)
	dispatcher := jobs.NewQueueDispatcher(queueAdapter)

	// Initialize services
	ledgerService := ledger.NewLedgerService(db)
	chainService := referral.NewChainService(db, cfg.Rewards.CommissionRates)
	profileService := volunteer.NewProfileService(
		db,
		ledgerService,
		chainService,
		dispatcher,
		cfg.Rewards.LevelThresholds,
		cfg.Rewards.Multiplier,
		cfg.Rewards.LevelBonus,
	)
	distributor := commission.NewDistributor(db, ledgerService, dispatcher, cfg.Rewards.Commission)
	assignmentService := task.NewAssignmentService(db, ledgerService, profileService, dispatcher)
	templateService := task.NewTemplateService(db)

	// Register job handlers before anything can enqueue
	jobs.RegisterAllJobHandlers(queueAdapter, db, profileService, distributor)

	// Initialize handlers
	profileHandler := handlers.NewProfileHandler(profileService, chainService, ledgerService)
	referralHandler := handlers.NewReferralHandler(profileService, chainService)
	taskHandler := handlers.NewTaskHandler(assignmentService)
	templateHandler := handlers.NewTemplateHandler(templateService)
	saleHandler := handlers.NewSaleHandler(distributor, ledgerService, profileService)
	queueHandler := handlers.NewQueueHandler(redisQueue)

	// Initialize Gin router
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	rateLimiter := middleware.NewRateLimiter(20, 40)
	defer rateLimiter.Stop()

	routes.SetupRoutes(router, profileHandler, referralHandler, taskHandler, templateHandler, saleHandler, queueHandler, rateLimiter)

	// Start worker pools, one per job type
	workerManager := queue.NewWorkerManager(redisQueue)
	for _, jobType := range []queue.JobType{
		queue.JobTypeRecalculateMultiplier,
		queue.JobTypeDistributeCommissions,
		queue.JobTypeDecaySweep,
		queue.JobTypeOverdueReport,
	} {
		handler, ok := queueAdapter.Handler(jobType)
		if !ok {
			log.Fatalf("No handler registered for job type %s", jobType)
		}
		workerManager.RegisterWorker(jobType, handler, cfg.Rewards.WorkerCount)
	}

	if err := jobs.ScheduleRecurringJobs(workerManager, cfg.Rewards.Multiplier.DecayGraceDays); err != nil {
		log.Fatalf("Failed to schedule recurring jobs: %v", err)
	}

	workerManager.StartAll()

	// Recover jobs the durable mirror says were lost from Redis
	recovery := queue.NewRecoveryProcessor(db, redisQueue, queue.DefaultRecoveryConfig())
	recovery.Start()

	// Start server
	srv := startServer(router, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	recovery.Stop()
	workerManager.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

// startServer starts the HTTP server
func startServer(router *gin.Engine, port string) *http.Server {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", port)
	return srv
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/recovery-service/internal/allocation"
	httptransport "github.com/spec-kit/recovery-service/internal/api/http"
	"github.com/spec-kit/recovery-service/internal/api/http/handlers"
	"github.com/spec-kit/recovery-service/internal/auth"
	"github.com/spec-kit/recovery-service/internal/config"
	"github.com/spec-kit/recovery-service/internal/events"
	"github.com/spec-kit/recovery-service/internal/monitor"
	"github.com/spec-kit/recovery-service/internal/observability"
	"github.com/spec-kit/recovery-service/internal/persistence"
	"github.com/spec-kit/recovery-service/internal/repository"
	"github.com/spec-kit/recovery-service/internal/scoring"
	"github.com/spec-kit/recovery-service/internal/service"
	"github.com/spec-kit/recovery-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	caseRepo := repository.NewCaseRepository(pool)
	dcaRepo := repository.NewDCARepository(pool)
	breachRepo := repository.NewBreachRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	modelStore := scoring.NewFileModelStore(cfg.Scoring.ModelPath)
	scorer, err := scoring.NewScorer(modelStore, logger)
	if err != nil {
		logger.Fatal("failed to init scorer", zap.Error(err))
	}

	locker := allocation.NewRedisLocker(redis.Client, cfg.Scoring.LockTTL(), logger)

	allocationService := service.NewAllocationService(service.AllocationDependencies{
		CaseRepo:   caseRepo,
		DCARepo:    dcaRepo,
		AuditRepo:  auditRepo,
		Locker:     locker,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	workflowService := service.NewWorkflowService(service.WorkflowDependencies{
		CaseRepo:   caseRepo,
		AuditRepo:  auditRepo,
		Allocator:  allocationService,
		Scorer:     scorer,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	scoringService := service.NewScoringService(caseRepo, scorer, modelStore, logger)
	dcaService := service.NewDCAService(dcaRepo, caseRepo)
	authService := service.NewAuthService(*cfg, userRepo)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	slaMonitor := monitor.NewSLAMonitor(monitor.MonitorDependencies{
		CaseRepo:   caseRepo,
		BreachRepo: breachRepo,
		Workflow:   workflowService,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	scheduler := worker.NewScheduler(slaMonitor, cfg.Scheduler, metrics, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Cases:          handlers.NewCasesHandler(workflowService, scoringService, slaMonitor, caseRepo, auditRepo),
		DCAs:           handlers.NewDCAsHandler(dcaService),
		Allocations:    handlers.NewAllocationsHandler(allocationService),
		SLA:            handlers.NewSLAHandler(slaMonitor),
		Admin:          handlers.NewAdminHandler(scheduler, scoringService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

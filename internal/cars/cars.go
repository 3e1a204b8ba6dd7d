package cars

import (
	"context"
	"fmt"
	"sync"

	"car-listing/internal/cars/adapter/cleanup"
	carshttp "car-listing/internal/cars/adapter/http"
	"car-listing/internal/cars/adapter/persistence/mongodb"
	"car-listing/internal/cars/adapter/policy"
	"car-listing/internal/cars/adapter/storage"
	"car-listing/internal/cars/config"
	"car-listing/internal/cars/domain/repository"
	"car-listing/internal/cars/usecase"
	"car-listing/internal/shared/eventbus"
	"car-listing/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies are the infrastructure pieces the module runs on.
type Dependencies struct {
	Repository repository.CarRepository
	Store      repository.AttachmentStore
	Queue      repository.CleanupQueue
}

// CarsModule represents the complete car listing module
type CarsModule struct {
	deps    Dependencies
	usecase usecase.CarUsecaseInterface
	handler *carshttp.CarHTTPHandler
	worker  *cleanup.Worker
	config  *config.Config

	mu         sync.Mutex
	stopWorker context.CancelFunc
	workerDone chan struct{}
}

// NewCarsModule connects the module to Mongo, the object store and, when
// redisClient is not nil, the Redis cleanup queue.
func NewCarsModule(ctx context.Context, db *mongo.Database, redisClient *redis.Client, cfg *config.Config, bus eventbus.EventBusInterface, log logger.Logger) (*CarsModule, error) {
	if log == nil {
		log = logger.Default()
	}

	repo, err := mongodb.NewMongoCarRepository(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create car repository: %w", err)
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s attachment store: %w", cfg.StorageProvider, err)
	}

	var queue repository.CleanupQueue
	if redisClient != nil {
		queue = cleanup.NewRedisQueue(redisClient, cfg.CleanupQueueKey, log)
	} else {
		log.Warn("no Redis configured, orphaned images will only be logged")
		queue = cleanup.NewLogQueue(log)
	}

	return NewCarsModuleWithDependencies(Dependencies{Repository: repo, Store: store, Queue: queue}, cfg, bus, log)
}

// NewCarsModuleWithDependencies wires the module around existing infrastructure
func NewCarsModuleWithDependencies(deps Dependencies, cfg *config.Config, bus eventbus.EventBusInterface, log logger.Logger) (*CarsModule, error) {
	if log == nil {
		log = logger.Default()
	}

	accessPolicy, err := policy.NewCELPolicy(cfg.AccessRule)
	if err != nil {
		return nil, fmt.Errorf("failed to compile access rule: %w", err)
	}

	manager := storage.NewManager(deps.Store, deps.Queue, cfg.UploadConcurrency, log)

	var publisher repository.EventPublisher
	if bus != nil {
		publisher = bus
	}
	carUsecase := usecase.NewCarUsecase(deps.Repository, manager, accessPolicy, publisher, cfg.MaxImageBytes, log)

	worker := cleanup.NewWorker(deps.Queue, deps.Store, cleanup.WorkerConfig{
		Interval:    cfg.CleanupInterval,
		Batch:       cfg.CleanupBatch,
		MaxAttempts: cfg.CleanupMaxAttempts,
	}, log)

	return &CarsModule{
		deps:    deps,
		usecase: carUsecase,
		handler: carshttp.NewCarHTTPHandler(carUsecase, bus, cfg.MaxImageBytes, log),
		worker:  worker,
		config:  cfg,
	}, nil
}

// RegisterRoutes mounts /cars under router behind protect
func (cm *CarsModule) RegisterRoutes(router fiber.Router, protect fiber.Handler) {
	cm.handler.SetupCarRoutes(router.Group("/cars"), protect)
}

// GetUsecase returns the car usecase for external access
func (cm *CarsModule) GetUsecase() usecase.CarUsecaseInterface {
	return cm.usecase
}

// GetWorker returns the orphan cleanup worker
func (cm *CarsModule) GetWorker() *cleanup.Worker {
	return cm.worker
}

// StartWorker runs the cleanup worker until ctx is cancelled or Stop is
// called. The returned channel is closed once the worker has exited.
func (cm *CarsModule) StartWorker(ctx context.Context) <-chan struct{} {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.workerDone != nil {
		return cm.workerDone
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	cm.stopWorker = cancel
	cm.workerDone = done
	go func() {
		defer close(done)
		cm.worker.Run(ctx)
	}()
	return done
}

// PingStore checks the object store
func (cm *CarsModule) PingStore(ctx context.Context) error {
	return cm.deps.Store.Ping(ctx)
}

// Stop cancels the cleanup worker and waits for its current pass to finish
func (cm *CarsModule) Stop() error {
	cm.mu.Lock()
	cancel, done := cm.stopWorker, cm.workerDone
	cm.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

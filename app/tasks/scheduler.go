package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rosesandhello/facescrape/app/category"
	"github.com/rosesandhello/facescrape/app/cfg"
	"github.com/rosesandhello/facescrape/app/database"
	"github.com/rosesandhello/facescrape/app/identify"
	"github.com/rosesandhello/facescrape/app/market"
	"github.com/rosesandhello/facescrape/app/pricing"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	configCache    *category.ConfigCache
	oppRepo        database.OpportunityRepository
	marketplace    market.MarketplaceSource
	identifier     *identify.Identifier
	lookup         *pricing.Lookup
	pickup         *pricing.PickupEstimator
	evaluator      *pricing.Evaluator
	scanSettings   ScanSettings
	recheckEvery   time.Duration
	recheckLimit   int
	interval       time.Duration
	workerCount    int
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	taskQueue      chan TaskInterface
	scanRunning    atomic.Bool
	recheckRunning atomic.Bool
}

func NewScheduler(configCache *category.ConfigCache, oppRepo database.OpportunityRepository,
	marketplace market.MarketplaceSource, identifier *identify.Identifier,
	lookup *pricing.Lookup, pickup *pricing.PickupEstimator, evaluator *pricing.Evaluator) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		configCache: configCache,
		oppRepo:     oppRepo,
		marketplace: marketplace,
		identifier:  identifier,
		lookup:      lookup,
		pickup:      pickup,
		evaluator:   evaluator,
		scanSettings: ScanSettings{
			ZipCode:        cfg.ZipCode,
			RadiusMiles:    cfg.RadiusMiles,
			MaxAgeDays:     cfg.MaxListingAgeDays,
			ExcludePending: cfg.ExcludePending,
			SortByPrice:    cfg.SortByPrice,
		},
		recheckEvery: time.Duration(cfg.RecheckIntervalHours) * time.Hour,
		recheckLimit: cfg.RecheckLimit,
		interval:     time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:  cfg.WorkerCount,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueCycle()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueCycle()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// TriggerScan enqueues a scan cycle. Scans are non-reentrant: a cycle
// still queued or running makes this a no-op error.
func (s *Scheduler) TriggerScan() error {
	if !s.scanRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("scan already in progress")
	}

	task := NewScanTask(s.configCache, s.marketplace, s.identifier, s.lookup, s.pickup,
		s.evaluator, s.oppRepo, s.scanSettings)
	if err := s.EnqueueTask(task); err != nil {
		s.scanRunning.Store(false)
		return err
	}
	return nil
}

// TriggerRecheck enqueues a recheck cycle, with the same single-flight
// guarantee as TriggerScan.
func (s *Scheduler) TriggerRecheck() error {
	if !s.recheckRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("recheck already in progress")
	}

	task := NewRecheckTask(s.marketplace, s.lookup, s.evaluator, s.oppRepo, s.recheckEvery, s.recheckLimit)
	if err := s.EnqueueTask(task); err != nil {
		s.recheckRunning.Store(false)
		return err
	}
	return nil
}

func (s *Scheduler) enqueueCycle() {
	if err := s.TriggerScan(); err != nil {
		slog.Debug("Scan cycle not enqueued", "reason", err)
	}
	if err := s.TriggerRecheck(); err != nil {
		slog.Debug("Recheck cycle not enqueued", "reason", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

// releaseGuard clears the single-flight flag for the task's cycle type.
// Held across retries so a failing cycle cannot overlap its own retry.
func (s *Scheduler) releaseGuard(task TaskInterface) {
	switch task.GetType() {
	case TaskTypeScan:
		s.scanRunning.Store(false)
	case TaskTypeRecheck:
		s.recheckRunning.Store(false)
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 30*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err == nil {
		s.releaseGuard(task)
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if task.CanRetry() {
		task.IncrementRetryCount()
		retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}

		slog.Warn("Task retry scheduled", "type", string(task.GetType()), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

		go func() {
			time.Sleep(retryDelay)
			select {
			case <-s.ctx.Done():
				slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
				s.releaseGuard(task)
				return
			default:
				if retryErr := s.EnqueueTask(task); retryErr != nil {
					slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					s.releaseGuard(task)
				}
			}
		}()
	} else {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		s.releaseGuard(task)
	}
}

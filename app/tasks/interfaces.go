package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to manage background scanning.
// Example usage:
//
//	scheduler := NewScheduler(configCache, oppRepo, marketplace, identifier, lookup, pickup, evaluator)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.TriggerScan()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	TriggerScan() error
	TriggerRecheck() error
}

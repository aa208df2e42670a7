package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"academix/config"
	pinRepo "academix/database/repository/pin"
	"academix/services/tasks"

	"github.com/hibiken/asynq"
)

// Disabled PIN records are kept this long before the sweep removes them.
const defaultPinRetentionDays = 30

// InitPinMaintenanceWorker runs the async worker and its daily schedule in
// the background. The sweep is data hygiene only; nothing on the request
// path depends on it.
func InitPinMaintenanceWorker(repo pinRepo.PinRepository) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePinPurge, handlePinPurgeTask(repo))

	go func() {
		log.Println("[PinMaintenance] Starting async worker...")
		if err := srv.Run(mux); err != nil {
			log.Printf("[PinMaintenance] Worker stopped: %v", err)
		}
	}()

	go runPurgeSchedule(redisOpts)
}

// runPurgeSchedule enqueues the purge task once a day.
func runPurgeSchedule(redisOpts asynq.RedisClientOpt) {
	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{})

	task, err := tasks.NewPinPurgeTask(defaultPinRetentionDays)
	if err != nil {
		log.Printf("[PinMaintenance] Failed to build purge task: %v", err)
		return
	}
	if _, err := scheduler.Register("@every 24h", task); err != nil {
		log.Printf("[PinMaintenance] Failed to register purge schedule: %v", err)
		return
	}
	if err := scheduler.Run(); err != nil {
		log.Printf("[PinMaintenance] Scheduler stopped: %v", err)
	}
}

func handlePinPurgeTask(repo pinRepo.PinRepository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.PinPurgePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[PinMaintenance] Invalid payload: %v", err)
			return err
		}
		if p.RetentionDays <= 0 {
			p.RetentionDays = defaultPinRetentionDays
		}

		cutoff := time.Now().AddDate(0, 0, -p.RetentionDays)
		deleted, err := repo.DeleteDisabledBefore(cutoff)
		if err != nil {
			log.Printf("[PinMaintenance] Purge failed: %v", err)
			return err
		}
		if deleted > 0 {
			log.Printf("[PinMaintenance] Purged %d disabled pin records older than %s", deleted, cutoff.Format("2006-01-02"))
		}
		return nil
	}
}

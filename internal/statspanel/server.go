package statspanel

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/statspanel/statspanel/internal/common"
	"github.com/statspanel/statspanel/internal/common/health"
	"github.com/statspanel/statspanel/internal/common/task"
	"github.com/statspanel/statspanel/internal/common/util"
	"github.com/statspanel/statspanel/internal/statspanel/aggregator"
	"github.com/statspanel/statspanel/internal/statspanel/api"
	"github.com/statspanel/statspanel/internal/statspanel/cache"
	"github.com/statspanel/statspanel/internal/statspanel/configuration"
	"github.com/statspanel/statspanel/internal/statspanel/metrics"
	"github.com/statspanel/statspanel/internal/statspanel/queue"
	"github.com/statspanel/statspanel/internal/statspanel/repository"
	"github.com/statspanel/statspanel/internal/statspanel/testerclient"
)

// Serve wires the full service together and starts it. The returned function
// shuts everything down in reverse start order.
func Serve(ctx context.Context, config *configuration.StatspanelConfig, healthChecks *health.MultiChecker) (func(), error) {
	log.Info("Statspanel server starting")

	startupCompleteCheck := health.NewStartupCompleteChecker()
	healthChecks.Add(startupCompleteCheck)

	db := redis.NewUniversalClient(config.Redis.AsUniversalOptions())

	courseRepo := repository.NewRedisCourseRepository(db)
	slugRepo := repository.NewRedisSlugRepository(db)
	studentRepo := repository.NewRedisStudentRepository(db)
	slugStudentRepo := repository.NewRedisSlugStudentRepository(db)
	submissionRepo := repository.NewRedisSubmissionRepository(db)
	jobRepo := repository.NewRedisJobRepository(db)

	dataCache, err := cache.New(
		courseRepo,
		slugRepo,
		studentRepo,
		slugStudentRepo,
		submissionRepo,
		config.Ingestion.SubmissionCacheSize,
		config.Ingestion.SubmissionHydrateWindow,
	)
	if err != nil {
		return nil, err
	}

	// storage may still be coming up alongside us
	util.RetryUntilSuccess(ctx, func() error {
		return dataCache.Hydrate(ctx)
	}, func(err error) {
		log.WithError(err).Warn("Failed to hydrate cache, retrying")
		time.Sleep(time.Second)
	})

	eventQueue := queue.New()
	engine := aggregator.NewEngine(courseRepo, slugRepo, studentRepo, slugStudentRepo, submissionRepo, jobRepo, dataCache)
	worker := aggregator.NewWorker(eventQueue, engine, config.Ingestion.WatchdogLimit)

	taskManager := task.NewBackgroundTaskManager(metrics.MetricPrefix)
	taskManager.Register(worker.Tick, config.Ingestion.TickInterval, "aggregation_worker")

	metrics.ExposeDataMetrics(eventQueue, dataCache)

	tester := testerclient.New(config.Tester.Url, config.Tester.RequestTimeout, config.Tester.Retries).
		WithReturnUrl(config.Tester.ReturnUrl)
	router := api.NewRouter(api.NewHandlers(eventQueue, dataCache, tester), healthChecks)
	shutdownHttp := common.ServeHttp(config.HttpPort, router)

	startupCompleteCheck.MarkComplete()

	return func() {
		shutdownHttp()
		if taskManager.StopAll(10 * time.Second) {
			log.Warn("Background tasks did not stop within deadline")
		}
		if err := db.Close(); err != nil {
			log.WithError(err).Error("Failed to close redis client")
		}
		log.Info("Statspanel server shut down")
	}, nil
}

package cron

import (
	"context"
	"os"
	"sync"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"

	"github.com/customeros/mailgate/config"
	cron_config "github.com/customeros/mailgate/internal/cron/config"
	"github.com/customeros/mailgate/internal/logger"
	"github.com/customeros/mailgate/internal/tracing"
	"github.com/customeros/mailgate/services/audit"
)

// CONSTANTS
const (
	// GroupArtifacts is the group for raw artifact related jobs
	GroupArtifacts = "artifacts"
)

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupArtifacts: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg     *config.Config
	log     logger.Logger
	cron    *cronv3.Cron
	jobIDs  map[string]cronv3.EntryID
	auditor *audit.Auditor
}

func NewCronManager(cfg *config.Config, log logger.Logger, auditor *audit.Auditor) *CronManager {
	return &CronManager{
		cfg:     cfg,
		log:     log,
		jobIDs:  make(map[string]cronv3.EntryID),
		auditor: auditor,
	}
}

// Stop gracefully stops the cron manager and waits for running jobs
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		<-ctx.Done()
	}
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) error {
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		return err
	}

	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Debugf("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			return err
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	if cm.auditor != nil && cm.cfg.AuditConfig.Enabled && cronConfig.CronScheduleArtifactAudit != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleArtifactAudit, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupArtifacts].Lock()
			defer jobLocks.locks[GroupArtifacts].Unlock()
			cm.auditArtifacts()
		})
		if err != nil {
			return err
		}
		cm.jobIDs["artifact_audit"] = id
		cm.log.Infof("Registered artifact audit job with schedule: %s", cronConfig.CronScheduleArtifactAudit)
	}
	return nil
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() error {
	cm.log.Info("Starting cron manager")
	// seconds field enabled, overlapping runs skipped
	c := cronv3.New(
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	)
	if err := cm.registerJobs(c); err != nil {
		return err
	}
	c.Start()
	cm.cron = c
	return nil
}

func (cm *CronManager) auditArtifacts() {
	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.auditArtifacts")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	report, err := cm.auditor.Run(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Artifact audit failed: %v", err)
		return
	}
	if len(report.Missing) > 0 {
		cm.log.Warnf("Artifact audit found %d broken references", len(report.Missing))
	}
}

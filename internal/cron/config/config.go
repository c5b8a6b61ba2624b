package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Raw artifact audit, every 30 minutes
	CronScheduleArtifactAudit string `env:"CRON_SCHEDULE_ARTIFACT_AUDIT" envDefault:"0 */30 * * * *"`
}

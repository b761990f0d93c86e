package learning

import "time"

// Fixed tracking policy. These are not deployment config.
const (
	// CompletionThresholdPercent is the percent watched at which a lesson counts as complete.
	CompletionThresholdPercent = 80.0

	// A report at or below RewatchRestartMaxPercent against a stored percent above
	// RewatchPriorMinPercent is counted as a restart of a finished lesson.
	RewatchPriorMinPercent   = 80.0
	RewatchRestartMaxPercent = 20.0

	HeartbeatInterval = 5 * time.Second
	// HeartbeatActiveSeconds is credited to a session per heartbeat.
	HeartbeatActiveSeconds = 5

	IdleTimeout   = 60 * time.Second
	FlushInterval = 10 * time.Second
)

package consts

import "time"

// WorkerState defines the lifecycle state of the supervisor worker.
type WorkerState string

const (
	StateNotStarted  WorkerState = "NOT_STARTED"
	StateSpawning    WorkerState = "SPAWNING"    // Starting(1), Starting(2) reported
	StateRunning     WorkerState = "RUNNING"     // Child alive, liveness polling
	StateTerminating WorkerState = "TERMINATING" // Stopping(0) reported
	StateDone        WorkerState = "DONE"
)

// StopOutcome classifies how the supervised child went away.
type StopOutcome string

const (
	OutcomeSpawnFailed   StopOutcome = "spawn_failed"
	OutcomeSelfExit      StopOutcome = "self_exit"
	OutcomeKilled        StopOutcome = "killed"
	OutcomeAlreadyExited StopOutcome = "already_exited"
	OutcomeKillFailed    StopOutcome = "kill_failed"
)

// Status checkpoints reported by the worker. The values are progress markers
// for the service manager; they carry no meaning beyond ordering.
const (
	CheckpointBegin uint32 = 1
	CheckpointSpawn uint32 = 2
	CheckpointStop  uint32 = 0
)

const (
	// DefaultPollTick bounds both the stop latency and the liveness check cadence.
	DefaultPollTick = 1 * time.Second

	StartPendingWaitHint = 10 * time.Second
	StopPendingWaitHint  = 30 * time.Second

	// DefaultReapTimeout bounds how long Terminate waits for a killed child to be reaped.
	DefaultReapTimeout = 5 * time.Second

	// UninstallPollInterval is the pause between stop requests while uninstalling.
	UninstallPollInterval = 2 * time.Second
)

// Defaults written into the service parameters at install time.
const (
	DefaultInstallPort    = 4024
	DefaultInstallTimeout = "1d"
	DefaultLogLevel       = "error"
	DefaultFlagPrefix     = "--"
	MsvsmonFlagPrefix     = "/"
	DefaultDisplayName    = "Verboten msvsmon"
	DefaultDescription    = "A service for launching msvsmon in maximum Bad Idea Mode."
)

const (
	EnvPrefix = "VERBOTEN"

	// RegistryServicesPath is the HKLM key holding per-service configuration.
	RegistryServicesPath = `SYSTEM\CurrentControlSet\Services`
	RegistryParamsKey    = "Parameters"
)

// Personal.AI order the ending

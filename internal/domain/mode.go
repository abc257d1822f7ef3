package domain

// SyncMode names the backend treated as authoritative for the current sync cycle.
type SyncMode int

const (
	ModeUndetermined SyncMode = iota
	ModeLocal
	ModeCloud
)

func (m SyncMode) String() string {
	switch m {
	case ModeLocal:
		return "LOCAL"
	case ModeCloud:
		return "CLOUD"
	default:
		return "UNDETERMINED"
	}
}

// ProbeResult is the outcome of one local backend probe.
type ProbeResult int

const (
	// ProbeSkipped means the running context is not local-capable.
	ProbeSkipped ProbeResult = iota
	ProbeReachable
	ProbeUnreachable
)

func (r ProbeResult) String() string {
	switch r {
	case ProbeReachable:
		return "reachable"
	case ProbeUnreachable:
		return "unreachable"
	default:
		return "skipped"
	}
}

// NextMode is the sync-mode transition function. The mode is re-derived on every cycle,
// so the current mode never pins the next one.
func NextMode(_ SyncMode, probe ProbeResult) SyncMode {
	if probe == ProbeReachable {
		return ModeLocal
	}
	return ModeCloud
}

// SyncStatus is the tri-state indicator shown to users.
type SyncStatus string

const (
	StatusSynced  SyncStatus = "synced"
	StatusSyncing SyncStatus = "syncing"
	StatusError   SyncStatus = "error"
)

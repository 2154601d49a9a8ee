package models

import "time"

// AuditEntry records one event of a cleaning run.
// Removal entries carry Stage, Rule and RowsRemoved; the outlier entry also
// carries the bounds it used; the final summary entry carries RowsIn/RowsOut.
type AuditEntry struct {
	Seq         int      `json:"seq"`
	Stage       string   `json:"stage"`
	Rule        string   `json:"rule"`
	RowsRemoved int      `json:"rows_removed"`
	LowerBound  *float64 `json:"lower_bound,omitempty"`
	UpperBound  *float64 `json:"upper_bound,omitempty"`
	RowsIn      int      `json:"rows_in,omitempty"`
	RowsOut     int      `json:"rows_out,omitempty"`
	Message     string   `json:"message"`
}

// String returns the human-readable log line of the entry
func (e AuditEntry) String() string {
	return e.Message
}

// AuditLog is the ordered audit trail of one cleaning run
type AuditLog struct {
	RunID     string       `json:"run_id"`
	StartedAt time.Time    `json:"started_at"`
	Entries   []AuditEntry `json:"entries"`
}

// Lines renders every entry as one log line, in execution order
func (l AuditLog) Lines() []string {
	lines := make([]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		lines = append(lines, e.String())
	}
	return lines
}

// Summary returns the summary entry, if the run completed
func (l AuditLog) Summary() (AuditEntry, bool) {
	for i := len(l.Entries) - 1; i >= 0; i-- {
		if l.Entries[i].Stage == StageSummary {
			return l.Entries[i], true
		}
	}
	return AuditEntry{}, false
}

// Cleaning stages in execution order
const (
	StageCompleteness  = "completeness"
	StageDeduplication = "deduplication"
	StageHardRange     = "hard_range"
	StageOutlier       = "outlier"
	StageDerivation    = "derivation"
	StageSummary       = "summary"
)

// Cleaning rules
const (
	RuleMissingRequired     = "missing_required"
	RuleExactDuplicate      = "exact_duplicate"
	RuleDurationNonPositive = "duration_non_positive"
	RuleDurationTooLong     = "duration_too_long"
	RuleDurationTooShort    = "duration_too_short"
	RulePassengerCount      = "passenger_count"
	RulePickupCoords        = "pickup_coords"
	RuleDropoffCoords       = "dropoff_coords"
	RuleDurationIQR         = "duration_iqr"
	RuleSpeedLimit          = "speed_limit"
)

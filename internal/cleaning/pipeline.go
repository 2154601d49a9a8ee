package cleaning

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/urbanmobility/taxi-backend-go/internal/models"
	"github.com/urbanmobility/taxi-backend-go/internal/stats"
)

// Pipeline runs the cleaning stages in their fixed order.
// A Pipeline keeps no state between runs and may be reused.
type Pipeline struct {
	policy  Policy
	deriver *Deriver
	logger  *zap.Logger
	now     func() time.Time
}

// Result is the output of one run
type Result struct {
	Records []models.CleanTripRecord
	Audit   models.AuditLog
}

// NewPipeline creates a pipeline for the given policy
func NewPipeline(policy Policy, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		policy:  policy,
		deriver: NewDeriver(policy),
		logger:  logger.Named("cleaning"),
		now:     time.Now,
	}
}

// Policy returns the policy the pipeline applies
func (p *Pipeline) Policy() Policy {
	return p.policy
}

// Run cleans records. Bad rows are excluded and counted, never reported as
// errors. The input slice is not modified.
func (p *Pipeline) Run(records []models.RawTripRecord) Result {
	audit := &auditRecorder{logger: p.logger}
	log := models.AuditLog{
		RunID:     uuid.NewString(),
		StartedAt: p.now(),
	}

	p.logger.Info("Starting cleaning run",
		zap.String("run_id", log.RunID),
		zap.String("policy", p.policy.Name),
		zap.Int("rows_in", len(records)),
	)

	// Stage 1: completeness
	complete, removed := FilterIncomplete(records)
	audit.removed(models.StageCompleteness, models.RuleMissingRequired, removed,
		"Removed %d rows with missing critical values", removed)

	// Stage 2: exact duplicates
	unique, removed := Deduplicate(complete)
	audit.removed(models.StageDeduplication, models.RuleExactDuplicate, removed,
		"Removed %d duplicate rows", removed)

	// Stage 3: hard ranges
	trips := ToTripRecords(unique)
	inRange, entries := FilterHardRanges(p.policy, trips)
	audit.append(entries...)

	// Stage 4: statistical duration outliers over the whole stage-3 output
	kept, entry := FilterDurationOutliers(p.policy, inRange)
	audit.append(entry)

	// Stage 5: derivation, then the speed filter that needs derived speed
	derived := DeriveAll(p.deriver, kept)
	clean, entry := FilterSpeed(p.policy, derived)
	audit.append(entry)

	audit.append(summaryEntry(len(records), len(clean)))
	log.Entries = audit.entries

	p.logger.Info("Cleaning run finished",
		zap.String("run_id", log.RunID),
		zap.Int("rows_in", len(records)),
		zap.Int("rows_out", len(clean)),
	)

	return Result{Records: clean, Audit: log}
}

// FilterIncomplete drops records missing any required field
func FilterIncomplete(records []models.RawTripRecord) ([]models.RawTripRecord, int) {
	out := make([]models.RawTripRecord, 0, len(records))
	for _, r := range records {
		if HasRequiredFields(r) {
			out = append(out, r)
		}
	}
	return out, len(records) - len(out)
}

// Deduplicate drops exact duplicates across all original fields. The first
// occurrence wins and the order of the survivors is preserved.
func Deduplicate(records []models.RawTripRecord) ([]models.RawTripRecord, int) {
	seen := make(map[models.RawTripKey]struct{}, len(records))
	out := make([]models.RawTripRecord, 0, len(records))
	for _, r := range records {
		key := r.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out, len(records) - len(out)
}

// ToTripRecords converts complete raw records to typed trip records.
// Records missing a required field are skipped.
func ToTripRecords(records []models.RawTripRecord) []models.TripRecord {
	out := make([]models.TripRecord, 0, len(records))
	for _, r := range records {
		if !HasRequiredFields(r) {
			continue
		}
		out = append(out, models.TripRecord{
			ID:               r.ID,
			VendorID:         r.VendorID,
			PickupDatetime:   r.PickupDatetime.Time,
			DropoffDatetime:  r.DropoffDatetime.Time,
			PassengerCount:   int(r.PassengerCount.Int64),
			PickupLongitude:  r.PickupLongitude.Float64,
			PickupLatitude:   r.PickupLatitude.Float64,
			DropoffLongitude: r.DropoffLongitude.Float64,
			DropoffLatitude:  r.DropoffLatitude.Float64,
			StoreAndFwdFlag:  r.StoreAndFwdFlag,
			TripDuration:     int(r.TripDuration.Int64),
		})
	}
	return out
}

type rangeRule struct {
	rule    string
	message string
	keep    func(models.TripRecord) bool
}

func hardRangeRules(p Policy) []rangeRule {
	return []rangeRule{
		{
			rule:    models.RuleDurationNonPositive,
			message: "Removed %d rows with zero or negative trip duration",
			keep:    func(t models.TripRecord) bool { return t.TripDuration > 0 },
		},
		{
			rule:    models.RuleDurationTooLong,
			message: fmt.Sprintf("Removed %%d rows with trip duration > %d seconds", p.MaxDurationSeconds),
			keep:    func(t models.TripRecord) bool { return t.TripDuration <= p.MaxDurationSeconds },
		},
		{
			rule:    models.RuleDurationTooShort,
			message: fmt.Sprintf("Removed %%d rows with trip duration < %d seconds", p.MinDurationSeconds),
			keep:    func(t models.TripRecord) bool { return t.TripDuration >= p.MinDurationSeconds },
		},
		{
			rule:    models.RulePassengerCount,
			message: fmt.Sprintf("Removed %%d rows with invalid passenger counts (outside %d-%d)", p.MinPassengers, p.MaxPassengers),
			keep:    func(t models.TripRecord) bool { return p.IsPassengerCountPlausible(t.PassengerCount) },
		},
		{
			rule:    models.RulePickupCoords,
			message: "Removed %d rows with invalid pickup coordinates",
			keep:    func(t models.TripRecord) bool { return p.IsWithinServiceArea(t.PickupLatitude, t.PickupLongitude) },
		},
		{
			rule:    models.RuleDropoffCoords,
			message: "Removed %d rows with invalid dropoff coordinates",
			keep:    func(t models.TripRecord) bool { return p.IsWithinServiceArea(t.DropoffLatitude, t.DropoffLongitude) },
		},
	}
}

// FilterHardRanges applies the duration, passenger and coordinate rules in
// their fixed order. Each rule sees the output of the previous one, so the
// removal counts are sequential.
func FilterHardRanges(p Policy, trips []models.TripRecord) ([]models.TripRecord, []models.AuditEntry) {
	rules := hardRangeRules(p)
	entries := make([]models.AuditEntry, 0, len(rules))

	current := trips
	for _, rule := range rules {
		next := make([]models.TripRecord, 0, len(current))
		for _, t := range current {
			if rule.keep(t) {
				next = append(next, t)
			}
		}
		removed := len(current) - len(next)
		entries = append(entries, models.AuditEntry{
			Stage:       models.StageHardRange,
			Rule:        rule.rule,
			RowsRemoved: removed,
			Message:     fmt.Sprintf(rule.message, removed),
		})
		current = next
	}

	return current, entries
}

// FilterDurationOutliers drops trips whose duration lies outside the IQR
// fences computed over the entire input
func FilterDurationOutliers(p Policy, trips []models.TripRecord) ([]models.TripRecord, models.AuditEntry) {
	durations := make([]float64, len(trips))
	for i, t := range trips {
		durations[i] = float64(t.TripDuration)
	}
	lower, upper := stats.IQRBounds(durations, p.IQRMultiplier)

	out := make([]models.TripRecord, 0, len(trips))
	for _, t := range trips {
		d := float64(t.TripDuration)
		if d >= lower && d <= upper {
			out = append(out, t)
		}
	}

	removed := len(trips) - len(out)
	return out, models.AuditEntry{
		Stage:       models.StageOutlier,
		Rule:        models.RuleDurationIQR,
		RowsRemoved: removed,
		LowerBound:  &lower,
		UpperBound:  &upper,
		Message: fmt.Sprintf("Removed %d outliers from trip_duration (bounds: %.0f to %.0f seconds, %.1f to %.1f minutes)",
			removed, lower, upper, lower/60, upper/60),
	}
}

// DeriveAll derives features for every trip
func DeriveAll(d *Deriver, trips []models.TripRecord) []models.CleanTripRecord {
	out := make([]models.CleanTripRecord, len(trips))
	for i, t := range trips {
		out[i] = d.Derive(t)
	}
	return out
}

// FilterSpeed drops derived trips faster than the policy speed cap
func FilterSpeed(p Policy, trips []models.CleanTripRecord) ([]models.CleanTripRecord, models.AuditEntry) {
	out := make([]models.CleanTripRecord, 0, len(trips))
	for _, t := range trips {
		if t.AvgSpeedMph <= p.MaxSpeed {
			out = append(out, t)
		}
	}

	removed := len(trips) - len(out)
	return out, models.AuditEntry{
		Stage:       models.StageDerivation,
		Rule:        models.RuleSpeedLimit,
		RowsRemoved: removed,
		Message:     fmt.Sprintf("Removed %d rows with unrealistic speeds (>%g %s/h)", removed, p.MaxSpeed, p.DistanceUnit),
	}
}

func summaryEntry(rowsIn, rowsOut int) models.AuditEntry {
	retention := 0.0
	if rowsIn > 0 {
		retention = 100 * float64(rowsOut) / float64(rowsIn)
	}
	return models.AuditEntry{
		Stage:       models.StageSummary,
		RowsRemoved: rowsIn - rowsOut,
		RowsIn:      rowsIn,
		RowsOut:     rowsOut,
		Message: fmt.Sprintf("Rows in: %d, rows out: %d, removed: %d (retention %.2f%%)",
			rowsIn, rowsOut, rowsIn-rowsOut, retention),
	}
}

// auditRecorder accumulates the entries of one run
type auditRecorder struct {
	entries []models.AuditEntry
	logger  *zap.Logger
}

func (a *auditRecorder) removed(stage, rule string, n int, format string, args ...interface{}) {
	a.append(models.AuditEntry{
		Stage:       stage,
		Rule:        rule,
		RowsRemoved: n,
		Message:     fmt.Sprintf(format, args...),
	})
}

func (a *auditRecorder) append(entries ...models.AuditEntry) {
	for _, e := range entries {
		e.Seq = len(a.entries) + 1
		a.entries = append(a.entries, e)
		a.logger.Info(e.Message,
			zap.String("stage", e.Stage),
			zap.String("rule", e.Rule),
			zap.Int("rows_removed", e.RowsRemoved),
		)
	}
}

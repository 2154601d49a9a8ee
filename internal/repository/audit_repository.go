package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/urbanmobility/taxi-backend-go/internal/apperrors"
	"github.com/urbanmobility/taxi-backend-go/internal/database"
	"github.com/urbanmobility/taxi-backend-go/internal/models"
)

// AuditRepository persists cleaning audit logs
type AuditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// SaveAuditLog stores every entry of a run
func (r *AuditRepository) SaveAuditLog(ctx context.Context, log models.AuditLog) error {
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		return insertAuditLog(ctx, tx, r.db, log)
	})
	if err != nil {
		return apperrors.New(apperrors.PersistenceFailure, "save audit log", err)
	}
	return nil
}

const insertAuditSQL = `INSERT INTO cleaning_audit (
	run_id, seq, started_at, stage, rule, rows_removed,
	lower_bound, upper_bound, rows_in, rows_out, message
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func insertAuditLog(ctx context.Context, tx *sql.Tx, db *database.DB, log models.AuditLog) error {
	query := db.Rebind(insertAuditSQL)
	startedAt := log.StartedAt.Format(models.DateTimeLayout)

	for _, e := range log.Entries {
		_, err := tx.ExecContext(ctx, query,
			log.RunID, e.Seq, startedAt, e.Stage, e.Rule, e.RowsRemoved,
			nullFloat(e.LowerBound), nullFloat(e.UpperBound), e.RowsIn, e.RowsOut, e.Message,
		)
		if err != nil {
			return fmt.Errorf("failed to insert audit entry %d: %w", e.Seq, err)
		}
	}
	return nil
}

// GetLatestAuditLog retrieves the most recently started run
func (r *AuditRepository) GetLatestAuditLog(ctx context.Context) (*models.AuditLog, error) {
	var runID, startedAt string
	err := r.db.QueryRowContext(ctx, `SELECT run_id, started_at FROM cleaning_audit
		ORDER BY started_at DESC, run_id DESC LIMIT 1`).Scan(&runID, &startedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.NotFound, "get audit log", "no cleaning run recorded")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}

	return r.GetAuditLog(ctx, runID)
}

// GetAuditLog retrieves the entries of one run in execution order
func (r *AuditRepository) GetAuditLog(ctx context.Context, runID string) (*models.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`SELECT
		seq, started_at, stage, rule, rows_removed,
		lower_bound, upper_bound, rows_in, rows_out, message
		FROM cleaning_audit WHERE run_id = ? ORDER BY seq`), runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	log := &models.AuditLog{RunID: runID, Entries: []models.AuditEntry{}}
	for rows.Next() {
		var (
			e            models.AuditEntry
			startedAt    string
			lower, upper sql.NullFloat64
		)
		err := rows.Scan(&e.Seq, &startedAt, &e.Stage, &e.Rule, &e.RowsRemoved,
			&lower, &upper, &e.RowsIn, &e.RowsOut, &e.Message)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if t, err := time.Parse(models.DateTimeLayout, startedAt); err == nil {
			log.StartedAt = t
		}
		e.LowerBound = floatPtr(lower)
		e.UpperBound = floatPtr(upper)
		log.Entries = append(log.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit log: %w", err)
	}

	if len(log.Entries) == 0 {
		return nil, apperrors.Newf(apperrors.NotFound, "get audit log", "run %q not found", runID)
	}
	return log, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

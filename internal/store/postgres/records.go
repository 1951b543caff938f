package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
)

type VisitRecordRepo struct {
	pool *pgxpool.Pool
}

func NewVisitRecordRepo(pool *pgxpool.Pool) *VisitRecordRepo {
	return &VisitRecordRepo{pool: pool}
}

// Save inserts a finalized record. The session_id primary key rejects a
// second record for the same session.
func (r *VisitRecordRepo) Save(ctx context.Context, rec *domain.VisitRecord) error {
	prescriptions, err := json.Marshal(rec.Prescriptions)
	if err != nil {
		return fmt.Errorf("visitRecordRepo.Save: marshal prescriptions: %w", err)
	}

	history, err := json.Marshal(rec.PatientHistory)
	if err != nil {
		return fmt.Errorf("visitRecordRepo.Save: marshal patient history: %w", err)
	}

	check, err := json.Marshal(rec.SafetyCheck)
	if err != nil {
		return fmt.Errorf("visitRecordRepo.Save: marshal safety check: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO visit_records (session_id, start_time, end_time, role, prescriptions, patient_history, safety_check, clinician_note, patient_follow_up, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.SessionID, rec.StartTime, rec.EndTime, rec.Role,
		prescriptions, history, check,
		rec.ClinicianNote, rec.PatientFollowUp, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("visitRecordRepo.Save: %w", err)
	}

	return nil
}

func (r *VisitRecordRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.VisitRecord, error) {
	var rec domain.VisitRecord
	var prescriptions, history, check []byte

	err := r.pool.QueryRow(ctx,
		`SELECT session_id, start_time, end_time, role, prescriptions, patient_history, safety_check, clinician_note, patient_follow_up, created_at
		 FROM visit_records WHERE session_id = $1`,
		sessionID,
	).Scan(
		&rec.SessionID, &rec.StartTime, &rec.EndTime, &rec.Role,
		&prescriptions, &history, &check,
		&rec.ClinicianNote, &rec.PatientFollowUp, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("visitRecordRepo.GetBySessionID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("visitRecordRepo.GetBySessionID: %w", err)
	}

	err = unmarshalRecordJSON(&rec, prescriptions, history, check)
	if err != nil {
		return nil, fmt.Errorf("visitRecordRepo.GetBySessionID: %w", err)
	}

	return &rec, nil
}

func unmarshalRecordJSON(rec *domain.VisitRecord, prescriptions, history, check []byte) error {
	if err := json.Unmarshal(prescriptions, &rec.Prescriptions); err != nil {
		return fmt.Errorf("unmarshal prescriptions: %w", err)
	}
	if err := json.Unmarshal(history, &rec.PatientHistory); err != nil {
		return fmt.Errorf("unmarshal patient history: %w", err)
	}
	if err := json.Unmarshal(check, &rec.SafetyCheck); err != nil {
		return fmt.Errorf("unmarshal safety check: %w", err)
	}

	return nil
}

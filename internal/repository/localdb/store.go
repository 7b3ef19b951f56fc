package localdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mediconsult/mediconsult-api/internal/model"
	"github.com/mediconsult/mediconsult-api/internal/syncer"
)

// Store is the sqlx-backed client-side store. The driver is chosen by the
// caller; the SQL sticks to the common subset so sqlite and postgres both
// work.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

var _ syncer.LocalStore = (*Store)(nil)

// Migrate creates the local tables. Idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS patients (
			local_id TEXT PRIMARY KEY,
			server_id TEXT,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			dob TEXT,
			meta TEXT,
			updated_at BIGINT NOT NULL,
			sync_status TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS consultations (
			local_id TEXT PRIMARY KEY,
			server_id TEXT,
			patient_local_id TEXT NOT NULL,
			clinician_id TEXT NOT NULL,
			status TEXT NOT NULL,
			scheduled_at BIGINT,
			notes TEXT,
			updated_at BIGINT NOT NULL,
			sync_status TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			local_id TEXT PRIMARY KEY,
			server_id TEXT,
			consultation_local_id TEXT NOT NULL,
			author_id TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			sync_status TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value BIGINT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate local store: %w", err)
		}
	}
	return nil
}

func (s *Store) PendingPatients(ctx context.Context) ([]*model.LocalPatient, error) {
	query := s.db.Rebind(`SELECT * FROM patients WHERE sync_status = ?`)
	var rows []*model.LocalPatient
	if err := s.db.SelectContext(ctx, &rows, query, model.SyncStatusPending); err != nil {
		return nil, fmt.Errorf("failed to select pending patients: %w", err)
	}
	return rows, nil
}

func (s *Store) PendingConsultations(ctx context.Context) ([]*model.LocalConsultation, error) {
	query := s.db.Rebind(`SELECT * FROM consultations WHERE sync_status = ?`)
	var rows []*model.LocalConsultation
	if err := s.db.SelectContext(ctx, &rows, query, model.SyncStatusPending); err != nil {
		return nil, fmt.Errorf("failed to select pending consultations: %w", err)
	}
	return rows, nil
}

func (s *Store) PendingMessages(ctx context.Context) ([]*model.LocalMessage, error) {
	query := s.db.Rebind(`SELECT * FROM messages WHERE sync_status = ?`)
	var rows []*model.LocalMessage
	if err := s.db.SelectContext(ctx, &rows, query, model.SyncStatusPending); err != nil {
		return nil, fmt.Errorf("failed to select pending messages: %w", err)
	}
	return rows, nil
}

func (s *Store) UpsertPatient(ctx context.Context, patient *model.LocalPatient) error {
	query := `
		INSERT INTO patients (local_id, server_id, owner_id, name, dob, meta, updated_at, sync_status)
		VALUES (:local_id, :server_id, :owner_id, :name, :dob, :meta, :updated_at, :sync_status)
		ON CONFLICT (local_id) DO UPDATE SET
			server_id = excluded.server_id,
			owner_id = excluded.owner_id,
			name = excluded.name,
			dob = excluded.dob,
			meta = excluded.meta,
			updated_at = excluded.updated_at,
			sync_status = excluded.sync_status
	`
	if _, err := s.db.NamedExecContext(ctx, query, patient); err != nil {
		return fmt.Errorf("failed to upsert local patient: %w", err)
	}
	return nil
}

func (s *Store) UpsertConsultation(ctx context.Context, consultation *model.LocalConsultation) error {
	query := `
		INSERT INTO consultations (local_id, server_id, patient_local_id, clinician_id, status, scheduled_at, notes, updated_at, sync_status)
		VALUES (:local_id, :server_id, :patient_local_id, :clinician_id, :status, :scheduled_at, :notes, :updated_at, :sync_status)
		ON CONFLICT (local_id) DO UPDATE SET
			server_id = excluded.server_id,
			patient_local_id = excluded.patient_local_id,
			clinician_id = excluded.clinician_id,
			status = excluded.status,
			scheduled_at = excluded.scheduled_at,
			notes = excluded.notes,
			updated_at = excluded.updated_at,
			sync_status = excluded.sync_status
	`
	if _, err := s.db.NamedExecContext(ctx, query, consultation); err != nil {
		return fmt.Errorf("failed to upsert local consultation: %w", err)
	}
	return nil
}

func (s *Store) UpsertMessage(ctx context.Context, message *model.LocalMessage) error {
	query := `
		INSERT INTO messages (local_id, server_id, consultation_local_id, author_id, body, created_at, sync_status)
		VALUES (:local_id, :server_id, :consultation_local_id, :author_id, :body, :created_at, :sync_status)
		ON CONFLICT (local_id) DO UPDATE SET
			server_id = excluded.server_id,
			consultation_local_id = excluded.consultation_local_id,
			author_id = excluded.author_id,
			body = excluded.body,
			created_at = excluded.created_at,
			sync_status = excluded.sync_status
	`
	if _, err := s.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("failed to upsert local message: %w", err)
	}
	return nil
}

func (s *Store) MarkPatients(ctx context.Context, localIDs []string, status model.SyncStatus) error {
	return s.mark(ctx, "patients", localIDs, status)
}

func (s *Store) MarkConsultations(ctx context.Context, localIDs []string, status model.SyncStatus) error {
	return s.mark(ctx, "consultations", localIDs, status)
}

func (s *Store) MarkMessages(ctx context.Context, localIDs []string, status model.SyncStatus) error {
	return s.mark(ctx, "messages", localIDs, status)
}

func (s *Store) mark(ctx context.Context, table string, localIDs []string, status model.SyncStatus) error {
	if len(localIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(
		`UPDATE `+table+` SET sync_status = ? WHERE local_id IN (?)`, status, localIDs)
	if err != nil {
		return fmt.Errorf("failed to build mark query: %w", err)
	}
	query = s.db.Rebind(query)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark %s: %w", table, err)
	}
	return nil
}

func (s *Store) SetPatientSynced(ctx context.Context, localID string, serverID uuid.UUID, updatedAt int64) error {
	return s.setSynced(ctx, "patients", "updated_at", localID, serverID, updatedAt)
}

func (s *Store) SetConsultationSynced(ctx context.Context, localID string, serverID uuid.UUID, updatedAt int64) error {
	return s.setSynced(ctx, "consultations", "updated_at", localID, serverID, updatedAt)
}

func (s *Store) SetMessageSynced(ctx context.Context, localID string, serverID uuid.UUID, updatedAt int64) error {
	return s.setSynced(ctx, "messages", "created_at", localID, serverID, updatedAt)
}

func (s *Store) setSynced(ctx context.Context, table, timestampColumn, localID string, serverID uuid.UUID, acceptedAt int64) error {
	query := s.db.Rebind(
		`UPDATE ` + table + ` SET server_id = ?, sync_status = ?, ` + timestampColumn + ` = ? WHERE local_id = ?`)
	if _, err := s.db.ExecContext(ctx, query, serverID.String(), model.SyncStatusSynced, acceptedAt, localID); err != nil {
		return fmt.Errorf("failed to record %s sync result: %w", table, err)
	}
	return nil
}

func (s *Store) GetPatient(ctx context.Context, localID string) (*model.LocalPatient, error) {
	query := s.db.Rebind(`SELECT * FROM patients WHERE local_id = ?`)
	var row model.LocalPatient
	if err := s.db.GetContext(ctx, &row, query, localID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get local patient: %w", err)
	}
	return &row, nil
}

func (s *Store) GetConsultation(ctx context.Context, localID string) (*model.LocalConsultation, error) {
	query := s.db.Rebind(`SELECT * FROM consultations WHERE local_id = ?`)
	var row model.LocalConsultation
	if err := s.db.GetContext(ctx, &row, query, localID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get local consultation: %w", err)
	}
	return &row, nil
}

func (s *Store) FindPatientByServerID(ctx context.Context, serverID uuid.UUID) (*model.LocalPatient, error) {
	query := s.db.Rebind(`SELECT * FROM patients WHERE server_id = ?`)
	var row model.LocalPatient
	if err := s.db.GetContext(ctx, &row, query, serverID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find local patient: %w", err)
	}
	return &row, nil
}

func (s *Store) FindConsultationByServerID(ctx context.Context, serverID uuid.UUID) (*model.LocalConsultation, error) {
	query := s.db.Rebind(`SELECT * FROM consultations WHERE server_id = ?`)
	var row model.LocalConsultation
	if err := s.db.GetContext(ctx, &row, query, serverID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find local consultation: %w", err)
	}
	return &row, nil
}

func (s *Store) FindMessageByServerID(ctx context.Context, serverID uuid.UUID) (*model.LocalMessage, error) {
	query := s.db.Rebind(`SELECT * FROM messages WHERE server_id = ?`)
	var row model.LocalMessage
	if err := s.db.GetContext(ctx, &row, query, serverID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find local message: %w", err)
	}
	return &row, nil
}

func (s *Store) Checkpoint(ctx context.Context) (int64, error) {
	query := s.db.Rebind(`SELECT value FROM sync_state WHERE key = ?`)
	var value int64
	if err := s.db.GetContext(ctx, &value, query, "pull_checkpoint"); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	return value, nil
}

func (s *Store) SetCheckpoint(ctx context.Context, millis int64) error {
	query := `
		INSERT INTO sync_state (key, value) VALUES (:key, :value)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`
	args := map[string]interface{}{"key": "pull_checkpoint", "value": millis}
	if _, err := s.db.NamedExecContext(ctx, query, args); err != nil {
		return fmt.Errorf("failed to store checkpoint: %w", err)
	}
	return nil
}

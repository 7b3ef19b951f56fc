package syncer

import (
	"context"

	"github.com/google/uuid"

	"github.com/mediconsult/mediconsult-api/internal/model"
)

// LocalStore is the client-side persistence boundary. The client owns local
// id generation and local mutation; the server stays authoritative for field
// values merged back in on pull.
type LocalStore interface {
	// Pending rows eligible for the next push, per entity group.
	PendingPatients(ctx context.Context) ([]*model.LocalPatient, error)
	PendingConsultations(ctx context.Context) ([]*model.LocalConsultation, error)
	PendingMessages(ctx context.Context) ([]*model.LocalMessage, error)

	// Local upserts keyed by local_id.
	UpsertPatient(ctx context.Context, patient *model.LocalPatient) error
	UpsertConsultation(ctx context.Context, consultation *model.LocalConsultation) error
	UpsertMessage(ctx context.Context, message *model.LocalMessage) error

	// Sync-status bookkeeping around a push.
	MarkPatients(ctx context.Context, localIDs []string, status model.SyncStatus) error
	MarkConsultations(ctx context.Context, localIDs []string, status model.SyncStatus) error
	MarkMessages(ctx context.Context, localIDs []string, status model.SyncStatus) error
	SetPatientSynced(ctx context.Context, localID string, serverID uuid.UUID, updatedAt int64) error
	SetConsultationSynced(ctx context.Context, localID string, serverID uuid.UUID, updatedAt int64) error
	SetMessageSynced(ctx context.Context, localID string, serverID uuid.UUID, updatedAt int64) error

	// Local-id lookups, used to resolve parent rows synced on earlier runs.
	// A missing row returns nil, nil.
	GetPatient(ctx context.Context, localID string) (*model.LocalPatient, error)
	GetConsultation(ctx context.Context, localID string) (*model.LocalConsultation, error)

	// Server-id lookups, used to resolve relations during push and to merge
	// server-authoritative rows during pull.
	FindPatientByServerID(ctx context.Context, serverID uuid.UUID) (*model.LocalPatient, error)
	FindConsultationByServerID(ctx context.Context, serverID uuid.UUID) (*model.LocalConsultation, error)
	FindMessageByServerID(ctx context.Context, serverID uuid.UUID) (*model.LocalMessage, error)

	// Incremental pull checkpoint, epoch milliseconds.
	Checkpoint(ctx context.Context) (int64, error)
	SetCheckpoint(ctx context.Context, millis int64) error
}

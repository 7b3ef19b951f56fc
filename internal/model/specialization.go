package model

import (
	"github.com/google/uuid"
)

// Specialization is static reference data, read-only from the scheduling side.
type Specialization struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

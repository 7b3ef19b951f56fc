package postgres

import (
	"context"
	"fmt"

	"github.com/mediconsult/mediconsult-api/internal/model"
)

func (r *specializationRepository) List(ctx context.Context) ([]*model.Specialization, error) {
	query := `SELECT id, name FROM specializations ORDER BY name ASC`

	var specializations []*model.Specialization
	if err := r.db.SelectContext(ctx, &specializations, query); err != nil {
		return nil, fmt.Errorf("failed to list specializations: %w", err)
	}
	return specializations, nil
}

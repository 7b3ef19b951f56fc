package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediconsult/mediconsult-api/internal/model"
)

// Statuses that hold a slot. CANCELLED appointments never conflict.
var conflictStatuses = []model.AppointmentStatus{
	model.AppointmentStatusPending,
	model.AppointmentStatusAccepted,
	model.AppointmentStatusCompleted,
}

// hasConflict reports whether the proposed [start, end) interval overlaps any
// slot-holding appointment of the doctor. The repository fetch is bounded by a
// padded search window; the exact duration-aware interval test runs here,
// since the range filter alone cannot express it. The pad is a heuristic bound
// on the longest appointment duration, not a hard limit.
func (s *Service) hasConflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	pad := s.cfg.ConflictWindowPad
	candidates, err := s.repo.FindByDoctorInWindow(ctx, doctorID, start.Add(-pad), end.Add(pad), conflictStatuses)
	if err != nil {
		return false, fmt.Errorf("failed to fetch conflict candidates: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ConflictCheckWindow.Observe(float64(len(candidates)))
	}

	for _, candidate := range candidates {
		if excludeID != nil && candidate.ID == *excludeID {
			continue
		}
		if overlaps(candidate.Start(), candidate.End(), start, end) {
			return true, nil
		}
	}
	return false, nil
}

// overlaps tests two half-open intervals [aStart, aEnd) and [bStart, bEnd).
// An appointment ending exactly when another starts does not overlap.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aEnd.After(bStart) && aStart.Before(bEnd)
}

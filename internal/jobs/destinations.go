package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
)

func (s *service) ListDestinations(ctx context.Context, providerID uuid.UUID, includeCompleted bool) ([]models.DestinationTask, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	tasks, err := s.repo.ListDestinations(ctx, providerID, includeCompleted)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list destination tasks")
	}
	return tasks, nil
}

// AdvanceDestination moves a transport task one step forward. Claiming an
// unassigned task (requested -> assigned) binds it to the caller; every later
// step requires that same provider.
func (s *service) AdvanceDestination(ctx context.Context, providerID, taskID uuid.UUID, to enums.DestinationTaskStatus) (*models.DestinationTask, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if taskID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id required")
	}
	if !to.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown destination status")
	}

	task, err := s.repo.FindDestinationByID(ctx, taskID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load destination task")
	}
	if task == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "destination task not found")
	}

	if task.ProviderID != nil && *task.ProviderID != providerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "task belongs to another provider")
	}
	if to.Ordinal() != task.Status.Ordinal()+1 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "task must advance to the next step").
			WithDetails(map[string]any{
				"current": task.Status,
				"target":  to,
			})
	}

	task.Status = to
	if to == enums.DestinationAssigned {
		id := providerID
		task.ProviderID = &id
	}
	if to == enums.DestinationCompleted {
		now := time.Now().UTC()
		task.CompletedAt = &now
	}

	if err := s.repo.SaveDestination(ctx, task); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save destination task")
	}
	return task, nil
}

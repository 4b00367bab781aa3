package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/pricing"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/outbox"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/pagination"
)

// Service covers the job lifecycle: marketplace discovery, work status,
// scheduling, and the vehicle custody chain.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, providerID, jobID uuid.UUID) (*JobDetail, error)
	StartWork(ctx context.Context, providerID, jobID uuid.UUID) (*models.JobPosting, error)
	Complete(ctx context.Context, providerID, jobID uuid.UUID) (*models.JobPosting, error)
	Schedule(ctx context.Context, providerID, jobID uuid.UUID, at time.Time) (*models.JobPosting, error)
	AdvanceTransfer(ctx context.Context, providerID, jobID uuid.UUID, input AdvanceInput) (*models.JobPosting, error)
	SaveEvidence(ctx context.Context, providerID, jobID uuid.UUID, input EvidenceInput) ([]models.EvidenceRecord, error)
	RecordKeyExchange(ctx context.Context, providerID, jobID uuid.UUID, input KeyExchangeInput) (*models.KeyExchangeRecord, error)
	ListDestinations(ctx context.Context, providerID uuid.UUID, includeCompleted bool) ([]models.DestinationTask, error)
	AdvanceDestination(ctx context.Context, providerID, taskID uuid.UUID, to enums.DestinationTaskStatus) (*models.DestinationTask, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type providerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Provider, error)
}

type service struct {
	repo      Repository
	providers providerLoader
	emitter   eventEmitter
	tx        txRunner
}

// ListParams filters the job feed. When AssignedToMe is false the feed is
// the open marketplace, radius-filtered around the provider's own ZIP.
type ListParams struct {
	ProviderID   uuid.UUID
	AssignedToMe bool
	Status       *enums.JobStatus
	Category     string
	Limit        int
	Cursor       string
}

// ListResult wraps a page of jobs and the cursor for the next page.
type ListResult struct {
	Items  []JobView `json:"items"`
	Cursor string    `json:"cursor"`
}

// JobView is a job row with the provider-relative distance estimate.
type JobView struct {
	Job           models.JobPosting `json:"job"`
	DistanceMiles int               `json:"distance_miles"`
}

// JobDetail is the full aggregate served by the job page.
type JobDetail struct {
	Job          models.JobPosting          `json:"job"`
	Evidence     []models.EvidenceRecord    `json:"evidence"`
	KeyExchanges []models.KeyExchangeRecord `json:"key_exchanges"`
}

// AdvanceInput moves the custody chain one step. ExpectedVersion must be the
// transfer version the client last read.
type AdvanceInput struct {
	To              enums.TransferStatus `json:"to" validate:"required"`
	ExpectedVersion int                  `json:"expected_version" validate:"required,min=1"`
}

// EvidenceInput attaches photos to a custody stage.
type EvidenceInput struct {
	Stage  enums.TransferStatus `json:"stage" validate:"required"`
	Photos []EvidencePhoto      `json:"photos" validate:"required,min=1,dive"`
}

// EvidencePhoto references one uploaded media object.
type EvidencePhoto struct {
	MediaID uuid.UUID `json:"media_id" validate:"required"`
	Caption *string   `json:"caption,omitempty"`
}

// KeyExchangeInput documents a key handoff. The photo is mandatory in both
// directions.
type KeyExchangeInput struct {
	Direction string    `json:"direction" validate:"required,oneof=intake return"`
	PhotoID   uuid.UUID `json:"photo_id" validate:"required"`
	Notes     *string   `json:"notes,omitempty"`
}

// NewService wires job lifecycle dependencies.
func NewService(repo Repository, providers providerLoader, emitter eventEmitter, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "jobs repository required")
	}
	if providers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "provider loader required")
	}
	if emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, providers: providers, emitter: emitter, tx: tx}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.ProviderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}

	provider, err := s.providers.FindByID(ctx, params.ProviderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider")
	}
	if provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
	}

	query := listJobsParams{
		ProviderID:   params.ProviderID,
		AssignedToMe: params.AssignedToMe,
		Status:       params.Status,
		Category:     params.Category,
		Limit:        pagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list jobs")
	}

	providerZip := ""
	if provider.Address != nil {
		providerZip = provider.Address.PostalCode
	}

	items := make([]JobView, 0, len(rows))
	for _, job := range rows {
		distance := pricing.EstimateZipDistance(providerZip, job.PostalCode)
		if !params.AssignedToMe && provider.ServiceRadiusMiles > 0 && distance > provider.ServiceRadiusMiles {
			continue
		}
		items = append(items, JobView{Job: job, DistanceMiles: distance})
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) Get(ctx context.Context, providerID, jobID uuid.UUID) (*JobDetail, error) {
	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	// Open marketplace jobs are visible to everyone; assigned jobs only to
	// their provider.
	if job.AssignedProviderID != nil && *job.AssignedProviderID != providerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "job belongs to another provider")
	}

	evidence, err := s.repo.ListEvidence(ctx, jobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list evidence")
	}
	exchanges, err := s.repo.ListKeyExchanges(ctx, jobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list key exchanges")
	}

	return &JobDetail{Job: *job, Evidence: evidence, KeyExchanges: exchanges}, nil
}

func (s *service) StartWork(ctx context.Context, providerID, jobID uuid.UUID) (*models.JobPosting, error) {
	return s.setStatus(ctx, providerID, jobID, enums.JobStatusOpen, enums.JobStatusInProgress)
}

func (s *service) Complete(ctx context.Context, providerID, jobID uuid.UUID) (*models.JobPosting, error) {
	return s.setStatus(ctx, providerID, jobID, enums.JobStatusInProgress, enums.JobStatusCompleted)
}

// setStatus moves the work status one step forward. Skipping and moving
// backwards are both rejected.
func (s *service) setStatus(ctx context.Context, providerID, jobID uuid.UUID, from, to enums.JobStatus) (*models.JobPosting, error) {
	var updated models.JobPosting
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		job, err := s.loadAssignedJob(ctx, repo, providerID, jobID)
		if err != nil {
			return err
		}
		if job.Status != from {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "job is not in the required status").
				WithDetails(map[string]any{"status": job.Status})
		}

		job.Status = to
		if to == enums.JobStatusCompleted {
			now := time.Now().UTC()
			job.CompletedAt = &now
		}
		if err := repo.Save(ctx, job); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save job")
		}

		if err := s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventJobUpdated,
			AggregateType: enums.AggregateJob,
			AggregateID:   job.ID,
			Data: outbox.JobEventData{
				JobID:  job.ID,
				Status: string(job.Status),
			},
		}); err != nil {
			return err
		}
		updated = *job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) Schedule(ctx context.Context, providerID, jobID uuid.UUID, at time.Time) (*models.JobPosting, error) {
	if at.Before(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled time must be in the future")
	}

	var updated models.JobPosting
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		job, err := s.loadAssignedJob(ctx, repo, providerID, jobID)
		if err != nil {
			return err
		}
		if job.Status == enums.JobStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "completed jobs cannot be rescheduled")
		}

		scheduled := at.UTC()
		job.ScheduledAt = &scheduled
		if err := repo.Save(ctx, job); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save job")
		}

		if err := s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventJobUpdated,
			AggregateType: enums.AggregateJob,
			AggregateID:   job.ID,
			Data: outbox.JobEventData{
				JobID:  job.ID,
				Status: string(job.Status),
			},
		}); err != nil {
			return err
		}
		updated = *job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// AdvanceTransfer moves the custody chain exactly one step forward. The
// write is a compare-and-swap on the transfer version: a stale version gets
// a retryable conflict so the client can refetch and retry.
func (s *service) AdvanceTransfer(ctx context.Context, providerID, jobID uuid.UUID, input AdvanceInput) (*models.JobPosting, error) {
	if !input.To.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown transfer status")
	}
	if input.ExpectedVersion < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expected version required")
	}

	var updated models.JobPosting
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		job, err := s.loadAssignedJob(ctx, repo, providerID, jobID)
		if err != nil {
			return err
		}

		currentOrd := job.TransferStatus.Ordinal()
		targetOrd := input.To.Ordinal()
		if targetOrd != currentOrd+1 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transfer must advance to the next stage").
				WithDetails(map[string]any{
					"current": job.TransferStatus,
					"target":  input.To,
				})
		}

		swapped, err := repo.AdvanceTransfer(ctx, jobID, input.ExpectedVersion, input.To)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance transfer")
		}
		if !swapped {
			return pkgerrors.New(pkgerrors.CodeVersionStale, "transfer version is stale").
				WithDetails(map[string]any{"expected_version": input.ExpectedVersion})
		}

		job.TransferStatus = input.To
		job.TransferVersion = input.ExpectedVersion + 1

		if err := s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransferAdvanced,
			AggregateType: enums.AggregateJob,
			AggregateID:   job.ID,
			Data: outbox.JobEventData{
				JobID:           job.ID,
				Status:          string(job.Status),
				TransferStatus:  string(job.TransferStatus),
				TransferVersion: job.TransferVersion,
			},
		}); err != nil {
			return err
		}
		updated = *job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) SaveEvidence(ctx context.Context, providerID, jobID uuid.UUID, input EvidenceInput) ([]models.EvidenceRecord, error) {
	if !input.Stage.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown transfer stage")
	}
	if len(input.Photos) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one photo required")
	}

	var records []models.EvidenceRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.loadAssignedJob(ctx, repo, providerID, jobID); err != nil {
			return err
		}

		records = make([]models.EvidenceRecord, 0, len(input.Photos))
		for _, photo := range input.Photos {
			if photo.MediaID == uuid.Nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "photo media id required")
			}
			records = append(records, models.EvidenceRecord{
				ID:      uuid.New(),
				JobID:   jobID,
				MediaID: photo.MediaID,
				Stage:   input.Stage,
				Kind:    enums.MediaKindEvidencePhoto,
				Caption: photo.Caption,
			})
		}
		if err := repo.InsertEvidence(ctx, records); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save evidence")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *service) RecordKeyExchange(ctx context.Context, providerID, jobID uuid.UUID, input KeyExchangeInput) (*models.KeyExchangeRecord, error) {
	if input.Direction != "intake" && input.Direction != "return" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "direction must be intake or return")
	}
	if input.PhotoID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "handoff photo required")
	}

	var record models.KeyExchangeRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.loadAssignedJob(ctx, repo, providerID, jobID); err != nil {
			return err
		}

		photoID := input.PhotoID
		record = models.KeyExchangeRecord{
			ID:        uuid.New(),
			JobID:     jobID,
			Direction: input.Direction,
			PhotoID:   &photoID,
			Notes:     input.Notes,
		}
		if err := repo.InsertKeyExchange(ctx, &record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save key exchange")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *service) loadJob(ctx context.Context, jobID uuid.UUID) (*models.JobPosting, error) {
	if jobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id required")
	}
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}
	if job == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
	}
	return job, nil
}

func (s *service) loadAssignedJob(ctx context.Context, repo Repository, providerID, jobID uuid.UUID) (*models.JobPosting, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if jobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id required")
	}
	job, err := repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}
	if job == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
	}
	if job.AssignedProviderID == nil || *job.AssignedProviderID != providerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "job is not assigned to this provider")
	}
	return job, nil
}

package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/middleware"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/responses"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/validators"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/jobs"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
)

const maxJobPageSize = 100

// ListJobs returns the open marketplace feed, or the provider's assigned work
// when assignedToMe is set.
func ListJobs(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		params := jobs.ListParams{ProviderID: middleware.ProviderIDFromContext(r.Context())}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, maxJobPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit

		assigned, err := validators.ParseQueryBool(r, "assignedToMe")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.AssignedToMe = assigned

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseJobStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			params.Status = &status
		}

		params.Category = strings.TrimSpace(r.URL.Query().Get("category"))
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetJob(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		jobID, err := validators.ParseURLParamUUID(r, "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), middleware.ProviderIDFromContext(r.Context()), jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func StartJob(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		jobID, err := validators.ParseURLParamUUID(r, "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, err := svc.StartWork(r.Context(), middleware.ProviderIDFromContext(r.Context()), jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, job)
	}
}

func CompleteJob(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		jobID, err := validators.ParseURLParamUUID(r, "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, err := svc.Complete(r.Context(), middleware.ProviderIDFromContext(r.Context()), jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, job)
	}
}

type scheduleRequest struct {
	At time.Time `json:"at" validate:"required"`
}

func ScheduleJob(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		jobID, err := validators.ParseURLParamUUID(r, "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input scheduleRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, err := svc.Schedule(r.Context(), middleware.ProviderIDFromContext(r.Context()), jobID, input.At)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, job)
	}
}

// AdvanceTransfer moves the vehicle custody chain one step forward.
func AdvanceTransfer(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		jobID, err := validators.ParseURLParamUUID(r, "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input jobs.AdvanceInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, err := svc.AdvanceTransfer(r.Context(), middleware.ProviderIDFromContext(r.Context()), jobID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, job)
	}
}

func SaveEvidence(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		jobID, err := validators.ParseURLParamUUID(r, "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input jobs.EvidenceInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.SaveEvidence(r.Context(), middleware.ProviderIDFromContext(r.Context()), jobID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, records)
	}
}

func RecordKeyExchange(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		jobID, err := validators.ParseURLParamUUID(r, "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input jobs.KeyExchangeInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.RecordKeyExchange(r.Context(), middleware.ProviderIDFromContext(r.Context()), jobID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

func ListDestinations(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		includeCompleted, err := validators.ParseQueryBool(r, "includeCompleted")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tasks, err := svc.ListDestinations(r.Context(), middleware.ProviderIDFromContext(r.Context()), includeCompleted)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tasks)
	}
}

type advanceDestinationRequest struct {
	To string `json:"to" validate:"required"`
}

func AdvanceDestination(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		taskID, err := validators.ParseURLParamUUID(r, "taskID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input advanceDestinationRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		to, err := enums.ParseDestinationTaskStatus(input.To)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid destination status"))
			return
		}

		task, err := svc.AdvanceDestination(r.Context(), middleware.ProviderIDFromContext(r.Context()), taskID, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, task)
	}
}

package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/middleware"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/responses"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/validators"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/bids"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
)

const maxBidPageSize = 100

// SubmitBid prices a job posting and records the provider's bid.
func SubmitBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bids service unavailable"))
			return
		}

		var input bids.SubmitInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), middleware.ProviderIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// UpdateBid revises a pending bid before the customer accepts it.
func UpdateBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bids service unavailable"))
			return
		}

		var input bids.UpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bid, err := svc.Update(r.Context(), middleware.ProviderIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bid)
	}
}

func ListMyBids(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bids service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, maxBidPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMine(r.Context(), middleware.ProviderIDFromContext(r.Context()), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// BidStats exposes the competitive range for a job's bids.
func BidStats(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bids service unavailable"))
			return
		}

		jobID, err := validators.ParseURLParamUUID(r, "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.CompetitiveStats(r.Context(), jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

type classifyRequest struct {
	JobID  string          `json:"job_id" validate:"required,uuid"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// ClassifyBid buckets an amount against the job's market without storing it.
func ClassifyBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bids service unavailable"))
			return
		}

		var input classifyRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobID, err := parseUUID(input.JobID, "job_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		classification, err := svc.Classify(r.Context(), jobID, input.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"classification": classification})
	}
}

// BatchQuote prices the same service across a fleet without touching jobs.
func BatchQuote(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bids service unavailable"))
			return
		}

		var input bids.BatchInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.BatchQuote(r.Context(), middleware.ProviderIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

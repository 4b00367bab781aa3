package controllers

import (
	"net/http"
	"strings"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/middleware"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/responses"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/validators"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/inspections"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
)

// GetInspectionTemplate returns the checklist for the requested depth.
func GetInspectionTemplate(svc inspections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inspections service unavailable"))
			return
		}

		depth, err := enums.ParseInspectionDepth(strings.TrimSpace(r.URL.Query().Get("depth")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inspection depth"))
			return
		}

		items, err := svc.GetTemplate(depth)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// RecordInspection stores an answered checklist against a vehicle.
func RecordInspection(svc inspections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inspections service unavailable"))
			return
		}

		var input inspections.RecordInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Record(r.Context(), middleware.ProviderIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func ListVehicleInspections(svc inspections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inspections service unavailable"))
			return
		}

		vehicleID, err := validators.ParseURLParamUUID(r, "vehicleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.ListForVehicle(r.Context(), middleware.ProviderIDFromContext(r.Context()), vehicleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}

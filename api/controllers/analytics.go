package controllers

import (
	"net/http"
	"strings"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/middleware"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/responses"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/analytics"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
)

// AnalyticsSummary returns earnings, job counts, and bid performance for the
// requested window.
func AnalyticsSummary(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		window := analytics.Window(strings.TrimSpace(r.URL.Query().Get("window")))

		summary, err := svc.Summary(r.Context(), middleware.ProviderIDFromContext(r.Context()), window)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

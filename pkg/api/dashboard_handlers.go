package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/aiwu-analytics/pkg/analytics"
	"github.com/platinummonkey/aiwu-analytics/pkg/httputil"
	"github.com/platinummonkey/aiwu-analytics/pkg/observability"
)

// DashboardPath is the single data endpoint consumed by the admin dashboard.
const DashboardPath = "/api/v1/dashboard"

// DashboardHandlers provides the dashboard API endpoint
type DashboardHandlers struct {
	source  analytics.ReportSource
	timeout time.Duration
}

// NewDashboardHandlers creates dashboard handlers over source. A positive
// timeout bounds each report computation.
func NewDashboardHandlers(source analytics.ReportSource, timeout time.Duration) *DashboardHandlers {
	return &DashboardHandlers{
		source:  source,
		timeout: timeout,
	}
}

// RegisterRoutes registers dashboard API routes
func (h *DashboardHandlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc(DashboardPath, h.getDashboard).Methods(http.MethodGet, http.MethodPost)
}

// getDashboard handles GET|POST /api/v1/dashboard
// Query or form params:
//   - date_from, date_to: YYYY-MM-DD, default: trailing 30 days
//   - plan: all, free, pro - default: all
//   - feature: token counter key, with or without the tokens_ prefix
//   - page, per_page: user listing pagination - default: 1, 50
func (h *DashboardHandlers) getDashboard(w http.ResponseWriter, r *http.Request) {
	req, err := parseDashboardRequest(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	report, err := h.source.ComputeDashboard(ctx, req)
	if err != nil {
		log := observability.FromContext(ctx).WithError(err).WithFields(logrus.Fields{
			"date_from": req.DateFrom,
			"date_to":   req.DateTo,
			"plan":      req.Plan,
		})
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			log.Warn("Dashboard computation did not finish")
			httputil.WriteServiceUnavailable(w, "report computation timed out")
			return
		}
		log.Error("Failed to compute dashboard")
		httputil.WriteInternalError(w)
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		observability.FromContext(ctx).WithError(err).Warn("Failed to write dashboard response")
	}
}

func parseDashboardRequest(r *http.Request) (analytics.Request, error) {
	page, err := httputil.ParseParamInt(r, "page", 1)
	if err != nil {
		return analytics.Request{}, err
	}
	perPage, err := httputil.ParseParamInt(r, "per_page", analytics.DefaultPerPage)
	if err != nil {
		return analytics.Request{}, err
	}

	return analytics.Request{
		DateFrom: httputil.ParseParamString(r, "date_from", ""),
		DateTo:   httputil.ParseParamString(r, "date_to", ""),
		Plan:     httputil.ParseParamString(r, "plan", "all"),
		Feature:  httputil.ParseParamString(r, "feature", ""),
		Page:     page,
		PerPage:  perPage,
	}, nil
}

package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/civil"

	"github.com/qldtariffs/qldtariffs/pkg/log"
	"github.com/qldtariffs/qldtariffs/pkg/storage"
	"github.com/qldtariffs/qldtariffs/pkg/types"
)

const (
	maxDailyRange   = 366
	maxMonthlyRange = 10 * 12
)

func (s *Server) handleMonthlySummaries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	siteID, ok := siteIDParam(w, r)
	if !ok {
		return
	}
	start, end, err := parseMonthRange(r)
	if err != nil {
		writeJSONError(w, "invalid month range: "+err.Error(), http.StatusBadRequest)
		return
	}

	months, err := s.storage.GetMonthSummaries(ctx, siteID, start, end)
	if err != nil {
		s.writeStorageError(w, r, "failed to get month summaries", err)
		return
	}
	if months == nil {
		months = []types.MonthSummary{}
	}

	now := time.Now()
	setCacheControl(w, !end.Before(types.MonthKey{Year: now.Year(), Month: now.Month()}.Next()))
	writeJSON(w, months)
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	siteID, ok := siteIDParam(w, r)
	if !ok {
		return
	}
	month, err := types.ParseMonthKey(r.PathValue("month"))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := s.storage.GetMonthSummary(ctx, siteID, month)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSONError(w, "month not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.writeStorageError(w, r, "failed to get month summary", err)
		return
	}

	now := time.Now()
	setCacheControl(w, !month.Before(types.MonthKey{Year: now.Year(), Month: now.Month()}))
	writeJSON(w, summary)
}

func (s *Server) handleDailySummaries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	siteID, ok := siteIDParam(w, r)
	if !ok {
		return
	}
	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSONError(w, "invalid date range: "+err.Error(), http.StatusBadRequest)
		return
	}

	days, err := s.storage.GetDailyUsage(ctx, siteID, start, end)
	if err != nil {
		s.writeStorageError(w, r, "failed to get daily usage", err)
		return
	}
	if days == nil {
		days = []types.DailyUsage{}
	}

	// the current day can still change as readings arrive
	setCacheControl(w, end.After(civil.DateOf(time.Now())))
	writeJSON(w, days)
}

// siteIDParam returns the validated siteID query parameter, writing a 400 when
// it is missing or invalid.
func siteIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	siteID := r.URL.Query().Get("siteID")
	if siteID == "" {
		writeJSONError(w, "siteID is required", http.StatusBadRequest)
		return "", false
	}
	if err := types.ValidateSiteID(siteID); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return siteID, true
}

// setCacheControl caches finished ranges for a day and ranges that can still
// change for a minute.
func setCacheControl(w http.ResponseWriter, open bool) {
	if open {
		w.Header().Set("Cache-Control", "private, max-age=60")
	} else {
		w.Header().Set("Cache-Control", "private, max-age=86400")
	}
}

func (s *Server) writeStorageError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if errors.Is(err, storage.ErrStorageDisabled) {
		writeJSONError(w, "storage is not configured", http.StatusServiceUnavailable)
		return
	}
	log.Ctx(ctx).ErrorContext(ctx, msg, slog.Any("error", err))
	writeJSONError(w, msg, http.StatusInternalServerError)
}

// parseMonthRange parses the half open [start, end) month range from the
// query string.
func parseMonthRange(r *http.Request) (types.MonthKey, types.MonthKey, error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" || endStr == "" {
		return types.MonthKey{}, types.MonthKey{}, fmt.Errorf("start and end are required")
	}

	start, err := types.ParseMonthKey(startStr)
	if err != nil {
		return types.MonthKey{}, types.MonthKey{}, fmt.Errorf("invalid start: %w", err)
	}
	end, err := types.ParseMonthKey(endStr)
	if err != nil {
		return types.MonthKey{}, types.MonthKey{}, fmt.Errorf("invalid end: %w", err)
	}

	if end.Before(start) {
		return types.MonthKey{}, types.MonthKey{}, fmt.Errorf("start must be before end")
	}
	if (end.Year-start.Year)*12+int(end.Month-start.Month) > maxMonthlyRange {
		return types.MonthKey{}, types.MonthKey{}, fmt.Errorf("range cannot exceed %d months", maxMonthlyRange)
	}
	return start, end, nil
}

// parseDateRange parses the half open [start, end) date range from the query
// string.
func parseDateRange(r *http.Request) (civil.Date, civil.Date, error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" || endStr == "" {
		return civil.Date{}, civil.Date{}, fmt.Errorf("start and end are required")
	}

	start, err := civil.ParseDate(startStr)
	if err != nil {
		return civil.Date{}, civil.Date{}, fmt.Errorf("invalid start: %w", err)
	}
	end, err := civil.ParseDate(endStr)
	if err != nil {
		return civil.Date{}, civil.Date{}, fmt.Errorf("invalid end: %w", err)
	}

	if end.Before(start) {
		return civil.Date{}, civil.Date{}, fmt.Errorf("start must be before end")
	}
	if start.DaysSince(end) < -maxDailyRange {
		return civil.Date{}, civil.Date{}, fmt.Errorf("range cannot exceed %d days", maxDailyRange)
	}
	return start, end, nil
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/qldtariffs/qldtariffs/pkg/billing"
	"github.com/qldtariffs/qldtariffs/pkg/log"
	"github.com/qldtariffs/qldtariffs/pkg/storage"
	"github.com/qldtariffs/qldtariffs/pkg/tariff"
	"github.com/qldtariffs/qldtariffs/pkg/types"
)

// maxAnalyzeBody fits a couple of years of half hourly readings.
const maxAnalyzeBody = 16 << 20

type analyzeRequest struct {
	SiteID string `json:"siteID,omitempty"`
	billing.Request
}

// isInvalidInput reports whether err was caused by the request rather than
// the server.
func isInvalidInput(err error) bool {
	return errors.Is(err, billing.ErrNoReadings) ||
		errors.Is(err, types.ErrInvalidInterval) ||
		errors.Is(err, types.ErrInvalidConfiguration) ||
		errors.Is(err, types.ErrInvalidSiteID) ||
		errors.Is(err, tariff.ErrUnknownTariff)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req analyzeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxAnalyzeBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode analyze request", slog.Any("error", err))
		s.metrics.observeAnalysis(unknownTariff, resultInvalid, 0)
		writeJSONError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.SiteID != "" {
		if err := types.ValidateSiteID(req.SiteID); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "invalid siteID in analyze request", slog.Any("error", err))
			s.metrics.observeAnalysis(s.tariffLabel(req.Tariff), resultInvalid, 0)
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		ctx = log.WithAttrs(ctx, slog.String("siteID", req.SiteID))
	}

	report, err := s.calculator.Analyze(ctx, req.Request)
	if err != nil {
		if isInvalidInput(err) {
			log.Ctx(ctx).WarnContext(ctx, "invalid analyze request", slog.Any("error", err))
			s.metrics.observeAnalysis(s.tariffLabel(req.Tariff), resultInvalid, 0)
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to analyze readings", slog.Any("error", err))
		s.metrics.observeAnalysis(s.tariffLabel(req.Tariff), resultError, 0)
		writeJSONError(w, "failed to analyze readings", http.StatusInternalServerError)
		return
	}
	s.metrics.observeAnalysis(s.tariffLabel(report.Tariff), resultOK, report.Intervals)

	if req.SiteID != "" {
		if err := s.storeReport(ctx, req.SiteID, report); err != nil {
			writeJSONError(w, "failed to store report", http.StatusInternalServerError)
			return
		}
		if s.publisher.Enabled() {
			if err := s.publisher.PublishMonths(ctx, req.SiteID, report.Monthly); err != nil {
				// the report is stored so publishing can be retried later
				log.Ctx(ctx).WarnContext(ctx, "failed to publish month summaries", slog.Any("error", err))
			}
		}
	}

	writeJSON(w, report)
}

func (s *Server) storeReport(ctx context.Context, siteID string, report billing.Report) error {
	err := s.storage.UpsertDailyUsage(ctx, siteID, report.Daily)
	if err == nil {
		err = s.storage.UpsertMonthSummaries(ctx, siteID, report.Monthly)
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrStorageDisabled):
		log.Ctx(ctx).DebugContext(ctx, "storage disabled, not storing report")
		return nil
	default:
		log.Ctx(ctx).ErrorContext(ctx, "failed to store report", slog.String("siteID", siteID), slog.Any("error", err))
		return err
	}
}

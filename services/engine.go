package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/tadeyemo32/lead-scraper/models"
	"go.uber.org/zap"
)

// Searcher yields raw result items for a query. *SearchClient implements it.
type Searcher interface {
	Search(ctx context.Context, query string, resultCap int) iter.Seq2[models.RawResultItem, error]
}

// Engine runs one lead search end to end: policy, query, pagination,
// extraction, aggregation and report.
type Engine struct {
	Policy    *AccessPolicy
	Searcher  Searcher
	Runs      *RunStore
	ResultCap int
	Names     NameParser
	Logger    *zap.Logger
}

// Run executes a search for caller. Errors are ValidationError,
// ErrInvalidKey, ErrRateLimited or one of the upstream errors, possibly
// wrapped.
func (e *Engine) Run(ctx context.Context, criteria models.SearchCriteria, caller string) (*models.SearchResponse, error) {
	logger := e.logger()

	if err := ValidateCriteria(criteria); err != nil {
		logger.Warn("[Engine] validation error", zap.Error(err))
		return nil, err
	}
	if err := e.Policy.Authorize(criteria.APIKey, caller); err != nil {
		logger.Warn("[Engine] request rejected", zap.String("caller", caller), zap.Error(err))
		return nil, err
	}

	query := BuildQuery(criteria)
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	logger.Info("[Engine] constructed search query", zap.String("query", query), zap.String("caller", caller))

	names := e.Names
	if names == nil {
		names = TitleNameParser{}
	}
	extractor := &Extractor{Domain: criteria.EmailDomain, Names: names}
	run := NewSearchRun()
	started := time.Now()

	var searchErr error
	for item, err := range e.Searcher.Search(ctx, query, e.resultCap()) {
		if err != nil {
			searchErr = err
			break
		}
		ex := extractor.Extract(item)
		if len(ex.Emails) == 0 {
			logger.Warn("[Engine] no emails found in search result",
				zap.String("title", item.Title), zap.String("url", item.Link), zap.String("snippet", item.Snippet))
		}
		run.Accumulate(item, ex)
	}

	record := models.RunRecord{
		ID:                 runID,
		Query:              query,
		Caller:             caller,
		Status:             RunStatus(searchErr),
		ResultsCount:       run.LeadsWithEmails(),
		TotalProcessed:     run.TotalProcessed,
		ItemsWithoutEmails: run.ItemsWithoutEmails,
		StartedAt:          started,
		Duration:           time.Since(started),
	}
	if err := e.Runs.Record(context.WithoutCancel(ctx), record); err != nil {
		logger.Error("[Engine] failed to record run", zap.Error(err))
	}

	if searchErr != nil {
		logger.Error("[Engine] search failed", zap.Int("processed", run.TotalProcessed), zap.Error(searchErr))
		return nil, fmt.Errorf("run %s: %w", runID, searchErr)
	}

	report := BuildReport(run)
	csvData, err := report.CSV()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	logger.Info("[Engine] search completed",
		zap.Int("results", report.ResultsCount),
		zap.Int("records", len(run.Records)),
		zap.Int("total_processed", run.TotalProcessed),
		zap.Int("items_without_emails", run.ItemsWithoutEmails))

	return &models.SearchResponse{
		Success:            true,
		Message:            report.Message,
		CSVData:            csvData,
		ResultsCount:       report.ResultsCount,
		TotalProcessed:     run.TotalProcessed,
		ItemsWithoutEmails: run.ItemsWithoutEmails,
	}, nil
}

func (e *Engine) resultCap() int {
	if e.ResultCap <= 0 {
		return DefaultResultCap
	}
	return e.ResultCap
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// RunStatus is the status string stored for a run that ended with err.
func RunStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUpstreamAuth):
		return "upstream_auth"
	case errors.Is(err, ErrUpstreamRateLimit):
		return "upstream_rate_limit"
	case errors.Is(err, ErrUpstreamQuery):
		return "upstream_query"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "error"
	}
}

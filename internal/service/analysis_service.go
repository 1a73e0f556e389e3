package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/rgd-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/rgd-inspector-go/internal/errors"
	"github.com/anime-shed/rgd-inspector-go/internal/logger"
	"github.com/anime-shed/rgd-inspector-go/internal/observer"
	"github.com/anime-shed/rgd-inspector-go/pkg/models"
	"github.com/anime-shed/rgd-inspector-go/pkg/rating"
	"github.com/anime-shed/rgd-inspector-go/pkg/validation"
)

// AnalysisService replays recorded tracing sessions through fresh analyses
type AnalysisService interface {
	// Evaluate replays one document: perimeter points, lock, strokes, finalize
	Evaluate(ctx context.Context, doc models.TraceDocument) (*models.EvaluationResponse, error)

	// EvaluateBatch replays documents independently; results keep input order
	EvaluateBatch(ctx context.Context, docs []models.TraceDocument) (*models.BatchResponse, error)

	// Rate applies the rating rules to caller-supplied metrics
	Rate(metrics models.AnalysisMetrics) (*models.RatingResponse, error)
}

// analysisService implements AnalysisService
type analysisService struct {
	opts         analyzer.AnalysisOptions
	engine       *rating.Engine
	validator    *validation.TraceValidator
	publisher    observer.Subject
	pool         *WorkerPool
	maxBatchSize int
}

// NewAnalysisService creates a new analysis service. The pool must be started
// by the caller.
func NewAnalysisService(
	opts analyzer.AnalysisOptions,
	engine *rating.Engine,
	publisher observer.Subject,
	pool *WorkerPool,
	maxBatchSize int,
) AnalysisService {
	return &analysisService{
		opts:         opts,
		engine:       engine,
		validator:    validation.NewTraceValidator(),
		publisher:    publisher,
		pool:         pool,
		maxBatchSize: maxBatchSize,
	}
}

func (s *analysisService) Evaluate(ctx context.Context, doc models.TraceDocument) (*models.EvaluationResponse, error) {
	start := time.Now()

	if len(doc.Perimeter) < s.opts.MinPerimeterPoints {
		return nil, apperrors.NewInsufficientPointsError(
			fmt.Sprintf("perimeter needs at least %d points, got %d", s.opts.MinPerimeterPoints, len(doc.Perimeter)), nil)
	}

	issues := s.validator.ValidateDocument(doc)
	if validation.HasErrors(issues) {
		first := validation.FilterBySeverity(issues, validation.SeverityError)[0]
		return nil, apperrors.NewValidationError("trace document rejected", nil).WithDetails("%s", first)
	}
	var warnings []string
	for _, issue := range validation.FilterBySeverity(issues, validation.SeverityWarning) {
		warnings = append(warnings, issue.String())
	}

	options := []analyzer.Option{analyzer.WithRatingEngine(s.engine)}
	if s.publisher != nil {
		options = append(options, analyzer.WithPublisher(s.publisher))
	}
	state, err := analyzer.NewAnalysisState(s.opts, options...)
	if err != nil {
		return nil, err
	}

	for i, p := range doc.Perimeter {
		if err := state.AddPerimeterPoint(p); err != nil {
			return nil, fmt.Errorf("perimeter point %d: %w", i, err)
		}
	}
	if err := state.LockPerimeter(); err != nil {
		return nil, err
	}

	var rejected []models.RejectedStroke
	for i, stroke := range doc.Strokes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := state.AddCrack(stroke); err != nil {
			if !isStrokeRejection(err) {
				return nil, err
			}
			rejected = append(rejected, models.RejectedStroke{
				Index:   i,
				Kind:    string(apperrors.TypeOf(err)),
				Message: err.Error(),
			})
		}
	}

	record, err := state.Finalize(doc.Metadata)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	logger.WithFields(logrus.Fields{
		"analysis_id":        state.ID(),
		"record_id":          record.ID,
		"strokes":            len(doc.Strokes),
		"rejected":           len(rejected),
		"rating":             record.Rating.Rating,
		"processing_time_ms": elapsed.Milliseconds(),
	}).Info("Trace document evaluated")

	return &models.EvaluationResponse{
		Record:            &record,
		Rejected:          rejected,
		Warnings:          warnings,
		ProcessingTimeSec: elapsed.Seconds(),
	}, nil
}

func (s *analysisService) EvaluateBatch(ctx context.Context, docs []models.TraceDocument) (*models.BatchResponse, error) {
	if len(docs) == 0 {
		return nil, apperrors.NewValidationError("batch contains no documents", nil)
	}
	if len(docs) > s.maxBatchSize {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("batch of %d documents exceeds the limit of %d", len(docs), s.maxBatchSize), nil)
	}

	results := make([]models.EvaluationResponse, len(docs))
	var wg sync.WaitGroup
	for i := range docs {
		i := i
		wg.Add(1)
		err := s.pool.Submit(ctx, func() {
			defer wg.Done()
			results[i] = s.evaluateOne(ctx, docs[i])
		})
		if err != nil {
			wg.Done()
			if errors.Is(err, ErrPoolClosed) {
				err = apperrors.NewInternalError("worker pool is closed", err)
			}
			results[i] = errorResult(err)
		}
	}
	wg.Wait()

	return &models.BatchResponse{Results: results}, nil
}

func (s *analysisService) evaluateOne(ctx context.Context, doc models.TraceDocument) models.EvaluationResponse {
	resp, err := s.Evaluate(ctx, doc)
	if err != nil {
		return errorResult(err)
	}
	return *resp
}

func (s *analysisService) Rate(metrics models.AnalysisMetrics) (*models.RatingResponse, error) {
	result, err := s.engine.Evaluate(metrics)
	if err != nil {
		return nil, err
	}
	return &models.RatingResponse{
		Rating:    result,
		Breakdown: s.engine.BreakdownTable(metrics),
	}, nil
}

// isStrokeRejection reports errors that discard one stroke but let the
// replay continue
func isStrokeRejection(err error) bool {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeDegenerateStroke,
		apperrors.ErrorTypeInvalidCrackGeometry,
		apperrors.ErrorTypeValidation:
		return true
	default:
		return false
	}
}

func errorResult(err error) models.EvaluationResponse {
	return models.EvaluationResponse{
		Error: &models.ErrorResponse{
			Error:   string(apperrors.TypeOf(err)),
			Message: err.Error(),
		},
	}
}

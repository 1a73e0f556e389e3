package analyzer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "github.com/anime-shed/rgd-inspector-go/internal/errors"
	"github.com/anime-shed/rgd-inspector-go/internal/logger"
	"github.com/anime-shed/rgd-inspector-go/internal/observer"
	"github.com/anime-shed/rgd-inspector-go/pkg/geometry"
	"github.com/anime-shed/rgd-inspector-go/pkg/models"
	"github.com/anime-shed/rgd-inspector-go/pkg/rating"
)

// AnalysisState owns one in-progress analysis: the perimeter, the accepted
// cracks and the metrics and rating derived from them. It is not safe for
// concurrent use; every mutation runs to completion before the next.
//
// A mutation that returns an error leaves the state unchanged.
type AnalysisState struct {
	id    string
	opts  AnalysisOptions
	phase models.Phase

	loop       *perimeterLoop
	simplifier PathSimplifier
	classifier CrackClassifier
	calculator MetricsCalculator
	engine     *rating.Engine

	cracks  []models.Crack
	metrics models.AnalysisMetrics
	rating  models.RatingResult

	publisher observer.Subject
	newID     func() string
	now       func() time.Time
}

// Option configures an AnalysisState
type Option func(*AnalysisState)

// WithPublisher delivers every mutation event to the publisher
func WithPublisher(p observer.Subject) Option {
	return func(s *AnalysisState) { s.publisher = p }
}

// WithIDGenerator replaces the UUID generator used for analysis, crack and record ids
func WithIDGenerator(gen func() string) Option {
	return func(s *AnalysisState) { s.newID = gen }
}

// WithClock replaces the clock used to stamp finalized records
func WithClock(now func() time.Time) Option {
	return func(s *AnalysisState) { s.now = now }
}

// WithRatingEngine replaces the default ISO rating engine
func WithRatingEngine(e *rating.Engine) Option {
	return func(s *AnalysisState) { s.engine = e }
}

// NewAnalysisState creates an analysis awaiting its perimeter
func NewAnalysisState(opts AnalysisOptions, options ...Option) (*AnalysisState, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s := &AnalysisState{
		opts:       opts,
		phase:      models.PhaseAwaitingPerimeter,
		loop:       &perimeterLoop{opts: opts},
		simplifier: NewPathSimplifier(opts),
		classifier: NewCrackClassifier(),
		calculator: NewMetricsCalculator(),
		engine:     rating.NewEngine(),
		newID:      uuid.NewString,
		now:        time.Now,
	}
	for _, o := range options {
		o(s)
	}
	s.id = s.newID()
	return s, nil
}

// Reopen seeds a new analysis from a finalized record and enters crack
// tracing. The record is not modified.
func Reopen(record models.AnalysisRecord, opts AnalysisOptions, options ...Option) (*AnalysisState, error) {
	s, err := NewAnalysisState(opts, options...)
	if err != nil {
		return nil, err
	}
	if err := s.loop.restore(record.Perimeter); err != nil {
		return nil, err
	}
	cracks := make([]models.Crack, 0, len(record.Cracks))
	for _, c := range record.Cracks {
		if _, err := c.Type.MarshalText(); err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("record crack %q has an invalid type", c.ID), err)
		}
		cracks = append(cracks, c.Clone())
	}
	m, r, err := s.evaluate(cracks)
	if err != nil {
		return nil, err
	}
	s.cracks, s.metrics, s.rating = cracks, m, r
	s.phase = models.PhaseTracingCracks
	s.log().WithFields(logrus.Fields{
		"record_id":   record.ID,
		"crack_count": len(cracks),
	}).Debug("Analysis reopened from record")
	return s, nil
}

// ID returns the analysis id
func (s *AnalysisState) ID() string { return s.id }

// Phase returns the lifecycle phase
func (s *AnalysisState) Phase() models.Phase { return s.phase }

// Options returns the tolerances the analysis runs with
func (s *AnalysisState) Options() AnalysisOptions { return s.opts }

func (s *AnalysisState) AddPerimeterPoint(p models.Point) error {
	if err := s.requirePhase("add perimeter point", models.PhaseAwaitingPerimeter, models.PhaseDefiningPerimeter); err != nil {
		return err
	}
	if err := s.loop.AddPoint(p); err != nil {
		return err
	}
	s.phase = models.PhaseDefiningPerimeter
	s.log().WithField("point_count", len(s.loop.points)).Debug("Perimeter point added")
	s.emit(observer.PerimeterPointAdded, nil, nil)
	return nil
}

func (s *AnalysisState) RemovePerimeterPoint(index int) error {
	if err := s.requirePhase("remove perimeter point", models.PhaseDefiningPerimeter); err != nil {
		return err
	}
	if _, err := s.loop.RemovePoint(index); err != nil {
		return err
	}
	s.afterPointRemoved()
	return nil
}

// RemoveNearestPerimeterPoint removes the perimeter point closest to p within
// radius and returns its index. A non-positive radius uses DeleteRadius.
func (s *AnalysisState) RemoveNearestPerimeterPoint(p models.Point, radius float64) (int, error) {
	if err := s.requirePhase("remove perimeter point", models.PhaseDefiningPerimeter); err != nil {
		return -1, err
	}
	index, err := s.loop.RemoveNearestPoint(p, radius)
	if err != nil {
		return -1, err
	}
	s.afterPointRemoved()
	return index, nil
}

func (s *AnalysisState) afterPointRemoved() {
	if len(s.loop.points) == 0 {
		s.phase = models.PhaseAwaitingPerimeter
	}
	s.log().WithField("point_count", len(s.loop.points)).Debug("Perimeter point removed")
	s.emit(observer.PerimeterPointRemoved, nil, nil)
}

// PreviewCurve returns the curve through the current points, or the locked
// curve once the perimeter is locked
func (s *AnalysisState) PreviewCurve() (*geometry.ClosedCurve, error) {
	return s.loop.PreviewCurve()
}

// LockPerimeter freezes the curve and pins CSD. Crack tracing may start
// immediately afterwards.
func (s *AnalysisState) LockPerimeter() error {
	if err := s.requirePhase("lock perimeter", models.PhaseDefiningPerimeter); err != nil {
		return err
	}
	if err := s.loop.Lock(); err != nil {
		return err
	}
	m, r, err := s.evaluate(nil)
	if err != nil {
		s.loop.unlock()
		return err
	}
	s.cracks, s.metrics, s.rating = nil, m, r
	s.phase = models.PhasePerimeterLocked
	s.log().WithFields(logrus.Fields{
		"csd_px":       s.loop.csd,
		"tolerance_px": s.loop.tolerance,
		"control":      len(s.loop.control),
	}).Debug("Perimeter locked")
	s.emit(observer.PerimeterLocked, nil, nil)
	return nil
}

// AddCrack simplifies and classifies a raw stroke and, if it is accepted,
// recomputes metrics and rating over the new crack set
func (s *AnalysisState) AddCrack(stroke []models.Point) (models.Crack, error) {
	if err := s.requirePhase("add crack", models.PhasePerimeterLocked, models.PhaseTracingCracks); err != nil {
		return models.Crack{}, err
	}
	crack, err := s.buildCrack(stroke)
	if err != nil {
		s.reject(err, len(stroke))
		return models.Crack{}, err
	}

	tentative := make([]models.Crack, 0, len(s.cracks)+1)
	tentative = append(tentative, s.cracks...)
	tentative = append(tentative, crack)
	m, r, err := s.evaluate(tentative)
	if err != nil {
		s.reject(err, len(stroke))
		return models.Crack{}, err
	}

	s.cracks, s.metrics, s.rating = tentative, m, r
	s.phase = models.PhaseTracingCracks
	s.log().WithFields(logrus.Fields{
		"crack_id":    crack.ID,
		"crack_type":  crack.Type.String(),
		"percent_csd": crack.PercentCSD,
		"rating":      r.Rating,
	}).Debug("Crack added")
	s.emit(observer.CrackAdded, &crack, nil)
	return crack.Clone(), nil
}

func (s *AnalysisState) buildCrack(stroke []models.Point) (models.Crack, error) {
	candidate, err := s.simplifier.Simplify(stroke, s.loop)
	if err != nil {
		return models.Crack{}, err
	}
	crack, err := s.classifier.Classify(candidate, s.loop)
	if err != nil {
		return models.Crack{}, err
	}
	crack.ID = s.newID()
	crack.PercentCSD = s.calculator.PercentCSD(crack.Length, s.loop.csd)
	return crack, nil
}

func (s *AnalysisState) reject(err error, samples int) {
	s.log().WithError(err).WithFields(logrus.Fields{
		"error_kind": apperrors.TypeOf(err),
		"samples":    samples,
	}).Warn("Crack rejected")
	s.emit(observer.CrackRejected, nil, err)
}

// RemoveCrack deletes a crack by id and recomputes metrics and rating
func (s *AnalysisState) RemoveCrack(id string) error {
	if err := s.requirePhase("remove crack", models.PhasePerimeterLocked, models.PhaseTracingCracks); err != nil {
		return err
	}
	idx := -1
	for i, c := range s.cracks {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("crack %q not found", id), nil)
	}

	removed := s.cracks[idx]
	tentative := make([]models.Crack, 0, len(s.cracks)-1)
	tentative = append(tentative, s.cracks[:idx]...)
	tentative = append(tentative, s.cracks[idx+1:]...)
	m, r, err := s.evaluate(tentative)
	if err != nil {
		return err
	}

	s.cracks, s.metrics, s.rating = tentative, m, r
	s.phase = models.PhaseTracingCracks
	s.log().WithFields(logrus.Fields{
		"crack_id": id,
		"rating":   r.Rating,
	}).Debug("Crack removed")
	s.emit(observer.CrackRemoved, &removed, nil)
	return nil
}

// Cracks returns a copy of the accepted cracks in insertion order
func (s *AnalysisState) Cracks() []models.Crack {
	return cloneCracks(s.cracks)
}

// Metrics returns the metrics of the current crack set
func (s *AnalysisState) Metrics() (models.AnalysisMetrics, error) {
	if !s.loop.locked {
		return models.AnalysisMetrics{}, apperrors.NewInvalidStateError("metrics need a locked perimeter", nil)
	}
	return cloneMetrics(s.metrics), nil
}

// Rating returns the rating of the current crack set
func (s *AnalysisState) Rating() (models.RatingResult, error) {
	if !s.loop.locked {
		return models.RatingResult{}, apperrors.NewInvalidStateError("rating needs a locked perimeter", nil)
	}
	return cloneRating(s.rating), nil
}

// Breakdown returns the ISO table rows for the current metrics
func (s *AnalysisState) Breakdown() ([]models.BreakdownRow, error) {
	if !s.loop.locked {
		return nil, apperrors.NewInvalidStateError("breakdown needs a locked perimeter", nil)
	}
	return s.engine.BreakdownTable(s.metrics), nil
}

// Snapshot returns everything the rendering and live display layers need
func (s *AnalysisState) Snapshot() models.AnalysisView {
	view := models.AnalysisView{
		Phase:          s.phase,
		PerimeterState: s.loop.State(),
		ControlPoints:  s.loop.ControlPoints(),
		Cracks:         s.Cracks(),
	}
	if s.loop.locked {
		view.Curve = s.loop.curve.Vertices()
		view.CSD = s.loop.csd
		view.Metrics = cloneMetrics(s.metrics)
		view.Rating = cloneRating(s.rating)
	} else if curve, err := s.loop.PreviewCurve(); err == nil {
		view.Curve = curve.Vertices()
	}
	return view
}

// Finalize freezes the analysis into a record. The state accepts no further
// edits until it is reset.
func (s *AnalysisState) Finalize(meta models.RecordMetadata) (models.AnalysisRecord, error) {
	if err := s.requirePhase("finalize", models.PhasePerimeterLocked, models.PhaseTracingCracks); err != nil {
		return models.AnalysisRecord{}, err
	}
	record := models.AnalysisRecord{
		ID:          s.newID(),
		FinalizedAt: s.now().UTC(),
		Perimeter:   s.loop.Snapshot(),
		Cracks:      cloneCracks(s.cracks),
		Metrics:     cloneMetrics(s.metrics),
		Rating:      cloneRating(s.rating),
		Breakdown:   s.engine.BreakdownTable(s.metrics),
		Metadata:    cloneMetadata(meta),
	}
	s.phase = models.PhaseFinalized
	s.log().WithFields(logrus.Fields{
		"record_id": record.ID,
		"rating":    record.Rating.Rating,
		"outcome":   record.Rating.Outcome,
	}).Debug("Analysis finalized")
	s.emit(observer.AnalysisFinalized, nil, nil)
	return record, nil
}

// Reset discards the perimeter and every crack. It is allowed in any phase.
func (s *AnalysisState) Reset() {
	s.loop.Reset()
	s.cracks = nil
	s.metrics = models.AnalysisMetrics{}
	s.rating = models.RatingResult{}
	s.phase = models.PhaseAwaitingPerimeter
	s.log().Debug("Analysis reset")
	s.emit(observer.AnalysisReset, nil, nil)
}

func (s *AnalysisState) evaluate(cracks []models.Crack) (models.AnalysisMetrics, models.RatingResult, error) {
	m := s.calculator.Aggregate(cracks)
	r, err := s.engine.Evaluate(m)
	if err != nil {
		return models.AnalysisMetrics{}, models.RatingResult{}, err
	}
	return m, r, nil
}

func (s *AnalysisState) requirePhase(op string, allowed ...models.Phase) error {
	for _, p := range allowed {
		if s.phase == p {
			return nil
		}
	}
	return apperrors.NewInvalidStateError(fmt.Sprintf("cannot %s while %s", op, s.phase), nil)
}

func (s *AnalysisState) emit(t observer.EventType, crack *models.Crack, err error) {
	if s.publisher == nil {
		return
	}
	event := observer.AnalysisEvent{
		EventType:  t,
		Timestamp:  s.now(),
		AnalysisID: s.id,
		Phase:      s.phase,
		PointCount: len(s.loop.points),
		Metrics:    cloneMetrics(s.metrics),
	}
	if s.loop.locked {
		r := cloneRating(s.rating)
		event.Rating = &r
	}
	if crack != nil {
		event.CrackID = crack.ID
		event.CrackType = crack.Type
	}
	if err != nil {
		event.ErrorKind = string(apperrors.TypeOf(err))
		event.ErrorMessage = err.Error()
	}
	s.publisher.NotifyObservers(event)
}

func (s *AnalysisState) log() *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"analysis_id": s.id,
		"phase":       s.phase,
	})
}

func cloneCracks(cracks []models.Crack) []models.Crack {
	out := make([]models.Crack, len(cracks))
	for i, c := range cracks {
		out[i] = c.Clone()
	}
	return out
}

func cloneMetrics(m models.AnalysisMetrics) models.AnalysisMetrics {
	m.InternalsInBandID = append([]string(nil), m.InternalsInBandID...)
	return m
}

func cloneRating(r models.RatingResult) models.RatingResult {
	r.Criteria = append([]models.Criterion(nil), r.Criteria...)
	return r
}

func cloneMetadata(meta models.RecordMetadata) models.RecordMetadata {
	out := models.RecordMetadata{ImageRef: meta.ImageRef}
	if meta.Snapshot != nil {
		out.Snapshot = append([]byte(nil), meta.Snapshot...)
	}
	if meta.Labels != nil {
		out.Labels = make(map[string]string, len(meta.Labels))
		for k, v := range meta.Labels {
			out.Labels[k] = v
		}
	}
	return out
}

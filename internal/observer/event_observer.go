package observer

import (
	"sync"
	"time"

	"github.com/anime-shed/rgd-inspector-go/pkg/models"
	"github.com/sirupsen/logrus"
)

// AnalysisEvent describes one mutation of an analysis and the state after it
type AnalysisEvent struct {
	EventType    EventType              `json:"event_type"`
	Timestamp    time.Time              `json:"timestamp"`
	AnalysisID   string                 `json:"analysis_id"`
	Phase        models.Phase           `json:"phase"`
	CrackID      string                 `json:"crack_id,omitempty"`
	CrackType    models.CrackType       `json:"crack_type,omitempty"`
	PointCount   int                    `json:"point_count"`
	Metrics      models.AnalysisMetrics `json:"metrics"`
	Rating       *models.RatingResult   `json:"rating,omitempty"`
	ErrorKind    string                 `json:"error_kind,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	PerimeterPointAdded   EventType = "perimeter_point_added"
	PerimeterPointRemoved EventType = "perimeter_point_removed"
	PerimeterLocked       EventType = "perimeter_locked"
	CrackAdded            EventType = "crack_added"
	CrackRejected         EventType = "crack_rejected"
	CrackRemoved          EventType = "crack_removed"
	AnalysisFinalized     EventType = "analysis_finalized"
	AnalysisReset         EventType = "analysis_reset"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":  event.EventType,
		"analysis_id": event.AnalysisID,
		"phase":       event.Phase,
		"crack_count": event.Metrics.CrackCount,
	}
	if event.CrackID != "" {
		fields["crack_id"] = event.CrackID
		fields["crack_type"] = event.CrackType.String()
	}
	if event.Rating != nil {
		fields["rating"] = event.Rating.Rating
		fields["outcome"] = event.Rating.Outcome
	}
	if event.ErrorMessage != "" {
		fields["error_kind"] = event.ErrorKind
		fields["error"] = event.ErrorMessage
	}

	switch event.EventType {
	case CrackRejected:
		o.logger.WithFields(fields).Warn("Crack rejected")
	case AnalysisFinalized:
		o.logger.WithFields(fields).Info("Analysis finalized")
	case PerimeterLocked:
		o.logger.WithFields(fields).Info("Perimeter locked")
	default:
		o.logger.WithFields(fields).Debug("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// EventPublisher implements the Subject interface. Observers run on the
// caller's goroutine in subscription order.
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to every observer before returning
func (p *EventPublisher) NotifyObservers(event AnalysisEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, obs := range observers {
		notify(obs, event)
	}
}

func notify(obs Observer, event AnalysisEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Log panic but don't crash the application
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(event)
}

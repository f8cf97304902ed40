// Package session coordinates the two delivery channels for one incident's
// analysis: the live event feed and the status polling loop. It owns the
// per-incident lifecycle state machine and is the single writer of the
// incident snapshot; everything the display layer needs flows out through
// Updates.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/oncallops/incidentwatch/internal/events"
	"github.com/oncallops/incidentwatch/internal/feed"
	"github.com/oncallops/incidentwatch/internal/poll"
	"github.com/oncallops/incidentwatch/internal/types"
)

// Phase is the session lifecycle state.
//
// Transitions:
//
//	idle ──Open──▶ loading ──snapshot──▶ analyzing ──root cause──▶ resolved
//	                  │                      │
//	                  └──already resolved────┘──attempts exhausted──▶ timed_out
//
// resolved is terminal. timed_out allows one more TriggerAnalysis, which
// re-enters analyzing with fresh channels.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseAnalyzing Phase = "analyzing"
	PhaseResolved  Phase = "resolved"
	PhaseTimedOut  Phase = "timed_out"
)

// API is the backend surface the session drives. *api.Client satisfies it.
type API interface {
	GetIncident(ctx context.Context, incidentID string) (*types.Incident, []types.LogEntry, error)
	TriggerAnalysis(ctx context.Context, incidentID string) error
	ResolveIncident(ctx context.Context, incidentID string) error
}

// Poller is the status polling channel. *poll.Loop satisfies it.
type Poller interface {
	Start(ctx context.Context, incidentID string, onResult func(poll.Result))
	Stop()
	Attempts() int
}

// EventStream is the live event channel. *feed.Feed satisfies it.
type EventStream interface {
	Connect(ctx context.Context, incidentID string) error
	Disconnect()
	State() feed.State
	OnStateChange(func(feed.State))
	OnEvent(func(*events.AgentEvent))
}

// Update is one display-layer notification. Exactly one of Event and the
// state fields is meaningful per update; Phase and Connection always carry
// the current values.
type Update struct {
	Phase      Phase
	Incident   *types.Incident
	Event      *events.AgentEvent
	Connection feed.State
	Attempts   int
}

// Session is the per-incident coordinator. One Session watches one
// incident; watching another incident means opening another Session.
type Session struct {
	incidentID string
	api        API
	poller     Poller
	stream     EventStream
	buffer     *events.Buffer
	log        *logrus.Logger

	updates chan Update

	mu              sync.Mutex
	phase           Phase
	incident        *types.Incident
	logs            []types.LogEntry
	closed          bool
	triggerInFlight bool
}

// New wires a session over its channels. The stream's callbacks are claimed
// here, so the caller must not register its own.
func New(incidentID string, backend API, poller Poller, stream EventStream, buffer *events.Buffer, log *logrus.Logger) *Session {
	if log == nil {
		log = logrus.New()
	}
	s := &Session{
		incidentID: incidentID,
		api:        backend,
		poller:     poller,
		stream:     stream,
		buffer:     buffer,
		log:        log,
		updates:    make(chan Update, 256),
		phase:      PhaseIdle,
	}
	stream.OnStateChange(s.handleFeedState)
	stream.OnEvent(s.handleEvent)
	return s
}

// Updates returns the display notification channel. Updates are dropped,
// never blocked on, when the consumer falls behind; the latest state is
// always available via Snapshot.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Snapshot returns the current incident snapshot and buffered log lines.
// The incident is cloned: mutating the return value cannot corrupt the
// session.
func (s *Session) Snapshot() (*types.Incident, []types.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logs := make([]types.LogEntry, len(s.logs))
	copy(logs, s.logs)
	return s.incident.Clone(), logs
}

// Events returns the buffered live events, oldest first.
func (s *Session) Events() []*events.AgentEvent {
	return s.buffer.Events()
}

// Open fetches the initial snapshot and, unless the incident is already
// resolved, starts both delivery channels. Opening a session that is not
// idle is an error.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session closed")
	}
	if s.phase != PhaseIdle {
		phase := s.phase
		s.mu.Unlock()
		return fmt.Errorf("session already opened (phase %s)", phase)
	}
	s.phase = PhaseLoading
	s.mu.Unlock()
	s.emit(Update{})

	incident, logs, err := s.api.GetIncident(ctx, s.incidentID)
	if err != nil {
		s.mu.Lock()
		s.phase = PhaseIdle
		s.mu.Unlock()
		return fmt.Errorf("loading incident %s: %w", s.incidentID, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session closed")
	}
	s.incident = incident
	s.logs = logs
	if incident.HasRootCause() {
		// Nothing to watch: the analysis already ran to completion.
		s.phase = PhaseResolved
		s.mu.Unlock()
		s.emit(Update{Incident: incident.Clone()})
		return nil
	}
	s.phase = PhaseAnalyzing
	s.mu.Unlock()
	s.emit(Update{Incident: incident.Clone()})

	s.startChannels(ctx)
	return nil
}

// TriggerAnalysis asks the backend to (re)start the analysis job. From
// timed_out it restarts both delivery channels for a fresh watch window.
// Concurrent triggers are collapsed into one request.
func (s *Session) TriggerAnalysis(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session closed")
	}
	if s.phase == PhaseResolved {
		s.mu.Unlock()
		return fmt.Errorf("incident %s already resolved", s.incidentID)
	}
	if s.triggerInFlight {
		s.mu.Unlock()
		return nil
	}
	s.triggerInFlight = true
	restart := s.phase == PhaseTimedOut
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.triggerInFlight = false
		s.mu.Unlock()
	}()

	if err := s.api.TriggerAnalysis(ctx, s.incidentID); err != nil {
		return fmt.Errorf("triggering analysis for %s: %w", s.incidentID, err)
	}

	if restart {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil
		}
		s.phase = PhaseAnalyzing
		s.mu.Unlock()
		s.emit(Update{})
		s.startChannels(ctx)
	}
	return nil
}

// Resolve marks the incident resolved on the backend. Allowed only once the
// session itself has reached resolved, i.e. a root cause is known.
func (s *Session) Resolve(ctx context.Context) error {
	s.mu.Lock()
	phase := s.phase
	s.mu.Unlock()
	if phase != PhaseResolved {
		return fmt.Errorf("cannot resolve incident %s before analysis completes (phase %s)", s.incidentID, phase)
	}
	return s.api.ResolveIncident(ctx, s.incidentID)
}

// Close tears the session down: both channels stop synchronously, and no
// update is emitted after Close returns. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.poller.Stop()
	s.stream.Disconnect()
	close(s.updates)
}

// startChannels connects the live feed and starts the poll loop. A feed
// connection failure is not fatal: polling alone still drives the session
// to a terminal phase.
func (s *Session) startChannels(ctx context.Context) {
	if err := s.stream.Connect(ctx, s.incidentID); err != nil {
		s.log.WithError(err).WithField("incident", s.incidentID).Warn("Event feed unavailable, continuing on polling alone")
	}
	s.poller.Start(ctx, s.incidentID, s.handlePollResult)
}

// handlePollResult runs on the poll loop goroutine when a run ends.
func (s *Session) handlePollResult(result poll.Result) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	switch result.Outcome {
	case poll.OutcomeComplete:
		// Completion may race a manual Close or a duplicate signal; the
		// first transition wins and the rest are dropped.
		if s.phase != PhaseAnalyzing {
			s.mu.Unlock()
			return
		}
		s.mergeIncidentLocked(result.Incident)
		s.phase = PhaseResolved
		incident := s.incident.Clone()
		s.mu.Unlock()

		s.log.WithFields(logrus.Fields{
			"incident": s.incidentID,
			"attempts": result.Attempts,
		}).Info("Analysis complete")
		s.stream.Disconnect()
		s.emit(Update{Incident: incident, Attempts: result.Attempts})

	case poll.OutcomeTimedOut:
		if s.phase != PhaseAnalyzing {
			s.mu.Unlock()
			return
		}
		s.phase = PhaseTimedOut
		s.mu.Unlock()

		s.log.WithFields(logrus.Fields{
			"incident": s.incidentID,
			"attempts": result.Attempts,
		}).Warn("Analysis timed out")
		s.stream.Disconnect()
		s.emit(Update{Attempts: result.Attempts})
	}
}

// handleEvent runs on the feed read loop for each buffered event.
func (s *Session) handleEvent(event *events.AgentEvent) {
	s.mu.Lock()
	if s.closed || s.phase != PhaseAnalyzing {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.emit(Update{Event: event})
}

// handleFeedState runs on feed state transitions.
func (s *Session) handleFeedState(state feed.State) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.emit(Update{})
}

// mergeIncidentLocked folds a fresh snapshot into the session's copy.
// A nil root cause in the fresh snapshot never clears one already seen:
// completion is latched.
func (s *Session) mergeIncidentLocked(fresh *types.Incident) {
	if fresh == nil {
		return
	}
	if s.incident == nil {
		s.incident = fresh.Clone()
		return
	}
	prev := s.incident
	s.incident = fresh.Clone()
	if s.incident.RootCause == nil {
		s.incident.RootCause = prev.RootCause
	}
	if s.incident.ActionTaken == nil {
		s.incident.ActionTaken = prev.ActionTaken
	}
}

// emit publishes an update without ever blocking a delivery channel
// goroutine. The phase and connection fields are stamped at send time.
// The closed check and the send happen under one lock hold, ordered
// against Close, so nothing is ever sent on the closed channel.
func (s *Session) emit(update Update) {
	update.Connection = s.stream.State()
	update.Attempts = max(update.Attempts, s.poller.Attempts())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	update.Phase = s.phase

	select {
	case s.updates <- update:
	default:
		s.log.Debug("Update channel full, dropping notification")
	}
}

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/zhouzirui/resort-concierge/backend/internal/config"
	"github.com/zhouzirui/resort-concierge/backend/internal/knowledge"
	"github.com/zhouzirui/resort-concierge/backend/internal/metrics"
	"github.com/zhouzirui/resort-concierge/backend/internal/model/chat"
	"github.com/zhouzirui/resort-concierge/backend/internal/model/profile"
	"github.com/zhouzirui/resort-concierge/backend/internal/service/ai"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrBlankQuestion   = errors.New("please enter a non-empty message")
	ErrBusy            = errors.New("a response is still being generated")
)

// BlankQuestionMessage is shown when the input box is submitted empty.
const BlankQuestionMessage = "Please enter a non-empty message."

// Status texts carried by EventStatus.
const (
	StatusGenerating = "Generating response..."
	StatusComplete   = "Response complete!"
	StatusNewChat    = "Started a new conversation!"
)

// StatusSessionExpired is shown when an idle session was replaced.
const StatusSessionExpired = "Session expired, started a new conversation."

// Completer answers prompts. *ai.Service implements it.
type Completer interface {
	Complete(ctx context.Context, p ai.Prompt) string
	StreamComplete(ctx context.Context, p ai.Prompt) <-chan string
	StreamingEnabled() bool
}

// DocumentSource supplies the knowledge document new sessions snapshot.
type DocumentSource interface {
	Current() (knowledge.Document, error)
}

// Options configures the session service.
type Options struct {
	Session config.SessionConfig
	Profile profile.Profile
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Service encapsulates conversation state management.
type Service struct {
	sessions  *cache.Cache
	docs      DocumentSource
	completer Completer
	profile   profile.Profile
	log       *zap.Logger
	metrics   *metrics.Metrics
}

// NewService keeps sessions in memory until they sit idle for opts.Session.TTL.
func NewService(docs DocumentSource, completer Completer, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ttl := opts.Session.TTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	cleanup := opts.Session.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}

	return &Service{
		sessions:  cache.New(ttl, cleanup),
		docs:      docs,
		completer: completer,
		profile:   opts.Profile,
		log:       log,
		metrics:   opts.Metrics,
	}
}

// session is the mutable state behind a chat.Session snapshot.
type session struct {
	mu         sync.Mutex
	id         string
	createdAt  time.Time
	document   knowledge.Document
	messages   []chat.Message
	busy       bool
	generation uint64
	cancel     context.CancelFunc
}

func (sess *session) snapshotLocked() chat.Session {
	messages := make([]chat.Message, len(sess.messages))
	copy(messages, sess.messages)

	return chat.Session{
		ID:        sess.id,
		Messages:  messages,
		Busy:      sess.busy,
		Document:  sess.document.Name,
		CreatedAt: sess.createdAt,
	}
}

func (sess *session) snapshot() chat.Session {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshotLocked()
}

// apply runs fn only while the turn started at gen is still current.
func (sess *session) apply(gen uint64, fn func()) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.generation != gen {
		return false
	}
	fn()
	return true
}

// CreateSession provisions an anonymous session holding a snapshot of the
// current document.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	doc, err := s.docs.Current()
	if err != nil {
		return chat.Session{}, err
	}

	sess := &session{
		id:        uuid.NewString(),
		createdAt: time.Now().UTC(),
		document:  doc,
		messages:  make([]chat.Message, 0, 16),
	}
	s.sessions.SetDefault(sess.id, sess)
	s.metrics.SessionCreated()

	s.log.Info("session created",
		zap.String("session_id", sess.id),
		zap.String("document", doc.Name),
		zap.Bool("document_empty", doc.Empty()),
	)

	return sess.snapshot(), nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	return sess.snapshot(), nil
}

// Transcript returns stored messages for the provided session.
func (s *Service) Transcript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	snapshot, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return snapshot.Messages, nil
}

// Reset starts a new conversation. An answer still being generated is
// cancelled and its remaining output discarded.
func (s *Service) Reset(_ context.Context, sessionID string) (chat.Session, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}

	sess.mu.Lock()
	sess.generation++
	sess.messages = make([]chat.Message, 0, 16)
	sess.busy = false
	if sess.cancel != nil {
		sess.cancel()
		sess.cancel = nil
	}
	snapshot := sess.snapshotLocked()
	sess.mu.Unlock()

	s.metrics.SessionReset()
	s.log.Info("session reset", zap.String("session_id", sessionID))

	return snapshot, nil
}

// Ask runs one turn: the question is appended, an assistant placeholder is
// added and filled as the answer arrives. render is called after every
// transcript change, from the calling goroutine, before the next fragment is
// read. Ask returns once the turn is complete. Upstream failures end up as the
// assistant's text, never as an error.
func (s *Service) Ask(ctx context.Context, sessionID, question string, render Renderer) (chat.Session, error) {
	if render == nil {
		render = func(Event) {}
	}

	sess, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}

	s.log.Debug("received question", zap.String("session_id", sessionID), zap.String("raw", question))

	question = strings.TrimSpace(question)
	if question == "" {
		s.metrics.Rejected("blank")
		return chat.Session{}, ErrBlankQuestion
	}

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	now := time.Now().UTC()
	userMsg := chat.Message{Role: chat.RoleUser, Content: question, CreatedAt: now}

	sess.mu.Lock()
	if sess.busy {
		sess.mu.Unlock()
		s.metrics.Rejected("busy")
		return chat.Session{}, ErrBusy
	}
	gen := sess.generation
	sess.busy = true
	sess.cancel = cancel
	sess.messages = append(sess.messages, userMsg)
	doc := sess.document
	sess.mu.Unlock()

	s.touch(sess)
	started := time.Now()

	render(Event{Type: EventUser, SessionID: sessionID, Message: userMsg, Busy: true})
	render(Event{Type: EventStatus, SessionID: sessionID, Status: StatusGenerating, Busy: true})

	answer := chat.Message{Role: chat.RoleAssistant, CreatedAt: time.Now().UTC()}
	var index int
	if !sess.apply(gen, func() {
		sess.messages = append(sess.messages, answer)
		index = len(sess.messages) - 1
	}) {
		return s.discarded(sess, sessionID, "stream", started)
	}

	mode := "complete"
	if s.completer.StreamingEnabled() {
		mode = "stream"
	}

	prompt, err := ai.BuildPrompt(s.profile, doc.Content, question)
	outcome := metrics.OutcomeAnswered
	switch {
	case err != nil:
		// no model call without a document
		outcome = metrics.OutcomeNoData
		answer.Content = ai.Describe(err)
		if !sess.apply(gen, func() { sess.messages[index].Content = answer.Content }) {
			return s.discarded(sess, sessionID, mode, started)
		}

	case mode == "stream":
		stale := false
		for fragment := range s.completer.StreamComplete(turnCtx, prompt) {
			if stale {
				continue
			}
			if strings.HasPrefix(fragment, ai.ErrorPrefix) {
				outcome = metrics.OutcomeError
			}
			answer.Content += fragment
			if !sess.apply(gen, func() { sess.messages[index].Content = answer.Content }) {
				// drain so the producer can exit
				stale = true
				cancel()
				continue
			}
			s.metrics.Fragment()
			render(Event{Type: EventDelta, SessionID: sessionID, Message: answer, Delta: fragment, Busy: true})
		}
		if stale {
			return s.discarded(sess, sessionID, mode, started)
		}

	default:
		answer.Content = s.completer.Complete(turnCtx, prompt)
		if strings.HasPrefix(answer.Content, ai.ErrorPrefix) {
			outcome = metrics.OutcomeError
		}
		if !sess.apply(gen, func() { sess.messages[index].Content = answer.Content }) {
			return s.discarded(sess, sessionID, mode, started)
		}
	}

	if strings.TrimSpace(answer.Content) == "" {
		outcome = metrics.OutcomeEmpty
		answer.Content = ai.EmptyReplyMessage
	}

	var snapshot chat.Session
	if !sess.apply(gen, func() {
		sess.messages[index].Content = answer.Content
		sess.busy = false
		sess.cancel = nil
		snapshot = sess.snapshotLocked()
	}) {
		return s.discarded(sess, sessionID, mode, started)
	}

	s.touch(sess)
	elapsed := time.Since(started)
	s.metrics.ObserveTurn(mode, outcome, elapsed)
	s.log.Info("turn complete",
		zap.String("session_id", sessionID),
		zap.String("mode", mode),
		zap.String("outcome", outcome),
		zap.Int("answer_length", len(answer.Content)),
		zap.Duration("elapsed", elapsed),
	)

	render(Event{Type: EventMessage, SessionID: sessionID, Message: answer})
	render(Event{Type: EventStatus, SessionID: sessionID, Status: StatusComplete})

	return snapshot, nil
}

// Profile returns the business profile used for prompts.
func (s *Service) Profile() profile.Profile {
	return s.profile
}

func (s *Service) discarded(sess *session, sessionID, mode string, started time.Time) (chat.Session, error) {
	s.metrics.ObserveTurn(mode, metrics.OutcomeDiscarded, time.Since(started))
	s.log.Info("turn discarded after reset", zap.String("session_id", sessionID))
	return sess.snapshot(), nil
}

func (s *Service) lookup(sessionID string) (*session, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	value, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return value.(*session), nil
}

// touch pushes the idle expiry forward.
func (s *Service) touch(sess *session) {
	s.sessions.SetDefault(sess.id, sess)
}

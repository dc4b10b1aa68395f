package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"career-quiz/internal/app"
	"career-quiz/internal/domain"
	"career-quiz/internal/render"
	"career-quiz/internal/timer"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// RunLocks keeps one open run per user.
type RunLocks interface {
	Acquire(ctx context.Context, userID string) (string, bool, error)
	Refresh(ctx context.Context, userID, token string) error
	Release(ctx context.Context, userID, token string) error
}

type WSHandler struct {
	backend  app.Backend
	quizzes  app.QuizRepository
	locks    RunLocks
	log      zerolog.Logger
	interval time.Duration
	upgrader websocket.Upgrader
}

// Option customises a WSHandler.
type Option func(*WSHandler)

// WithTickInterval shortens the countdown tick, for tests.
func WithTickInterval(d time.Duration) Option {
	return func(h *WSHandler) { h.interval = d }
}

func NewWSHandler(backend app.Backend, quizzes app.QuizRepository, locks RunLocks, log zerolog.Logger, opts ...Option) *WSHandler {
	h := &WSHandler{
		backend:  backend,
		quizzes:  quizzes,
		locks:    locks,
		log:      log.With().Str("component", "ws").Logger(),
		interval: time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Value      any    `json:"value"`
}

// decodeAnswer keeps numbers as json.Number so large integers reach the
// renderer in plain decimal form.
func decodeAnswer(raw json.RawMessage) (answerPayload, error) {
	var payload answerPayload
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return answerPayload{}, err
	}
	return payload, nil
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type landingPayload struct {
	Action           string `json:"action"`
	Message          string `json:"message,omitempty"`
	Title            string `json:"title,omitempty"`
	Description      string `json:"description,omitempty"`
	TotalSteps       int    `json:"totalSteps,omitempty"`
	CurrentStepIndex int    `json:"currentStepIndex"`
	AttemptID        string `json:"attemptId,omitempty"`
}

type stepPayload struct {
	StepIndex        int           `json:"stepIndex"`
	TotalSteps       int           `json:"totalSteps"`
	TimeLimitSeconds int           `json:"timeLimitSeconds"`
	Questions        []render.View `json:"questions"`
}

type tickPayload struct {
	StepIndex int `json:"stepIndex"`
	Remaining int `json:"remaining"`
}

type savedPayload struct {
	StepIndex int `json:"stepIndex"`
}

type finishedPayload struct {
	AttemptID string               `json:"attemptId"`
	Status    domain.AttemptStatus `json:"status"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and drives one user's landing screen and quiz
// run over the socket. A second connection for a user with an open run is
// refused with 409.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	token, ok, err := h.locks.Acquire(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("acquire run lock")
		http.Error(w, "run registry unavailable", http.StatusServiceUnavailable)
		return
	}
	if !ok {
		http.Error(w, "a quiz run is already open for this user", http.StatusConflict)
		return
	}
	defer func() {
		if err := h.locks.Release(context.Background(), userID, token); err != nil {
			h.log.Warn().Err(err).Str("user_id", userID).Msg("release run lock")
		}
	}()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	log := h.log.With().Str("user_id", userID).Logger()
	ctrl := app.NewController(h.backend, h.quizzes, userID, log)
	s := &session{
		ctx:      ctx,
		handler:  h,
		userID:   userID,
		token:    token,
		log:      log,
		landing:  app.NewLanding(ctrl),
		send:     make(chan outboundMessage, 16),
		done:     make(chan struct{}),
		interval: h.interval,
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-s.send:
				if err := conn.WriteJSON(msg); err != nil {
					log.Warn().Err(err).Msg("ws write error")
					conn.Close()
					return
				}
			case <-s.done:
				return
			}
		}
	}()

	ctrl.Bootstrap(ctx)
	s.emitLanding()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		s.handle(inbound)
	}

	s.stopCountdown()
	cancel()
	close(s.done)
	<-writerDone
}

// session is the state of one socket: its landing screen and, after start,
// its run with the active step's renderers.
type session struct {
	ctx      context.Context
	handler  *WSHandler
	userID   string
	token    string
	log      zerolog.Logger
	landing  *app.Landing
	send     chan outboundMessage
	done     chan struct{}
	interval time.Duration

	mu        sync.Mutex
	run       *app.Run
	renderers map[string]render.Renderer
	countdown *timer.Countdown
}

func (s *session) handle(msg inboundMessage) {
	if err := s.handler.locks.Refresh(s.ctx, s.userID, s.token); err != nil {
		s.log.Warn().Err(err).Msg("refresh run lock")
	}

	switch msg.Type {
	case "retry":
		s.landing.Retry(s.ctx)
		s.emitLanding()
	case "start":
		s.start()
	case "answer":
		payload, err := decodeAnswer(msg.Payload)
		if err != nil {
			s.emitError("invalid answer payload")
			return
		}
		s.answer(payload)
	case "submit":
		s.submit()
	default:
		s.emitError("unsupported message type")
	}
}

func (s *session) start() {
	s.mu.Lock()
	started := s.run != nil
	s.mu.Unlock()
	if started {
		s.emitError("quiz already started")
		return
	}

	run, err := s.landing.Begin()
	if err != nil {
		s.emitError(err.Error())
		return
	}
	s.mu.Lock()
	s.run = run
	s.mu.Unlock()
	s.log.Info().Str("attempt_id", s.landing.Attempt().ID).Int("step", run.StepIndex()).Msg("run started")
	s.startStep(run)
}

// startStep shows the active step and starts its countdown. A run resumed
// past its last step has only the finish outstanding.
func (s *session) startStep(run *app.Run) {
	step, ok := run.CurrentStep()
	if !ok {
		s.submit()
		return
	}

	renderers, err := render.ForStep(step, func(questionID string, value any) {
		if !run.SetAnswer(questionID, value) {
			s.emitError(fmt.Sprintf("answer for %s arrived after the step was submitted", questionID))
		}
	})
	if err != nil {
		s.emitError(err.Error())
		return
	}
	byID := make(map[string]render.Renderer, len(renderers))
	views := make([]render.View, 0, len(renderers))
	for _, r := range renderers {
		byID[r.Question().ID] = r
		views = append(views, r.View())
	}

	index := run.StepIndex()
	countdown := timer.New(
		func(remaining int) {
			s.emit("tick", tickPayload{StepIndex: index, Remaining: remaining})
		},
		func() {
			if run.StepIndex() != index {
				return
			}
			s.log.Debug().Int("step", index).Msg("step time expired")
			s.submit()
		},
		timer.WithInterval(s.interval),
	)

	s.mu.Lock()
	if s.countdown != nil {
		s.countdown.Stop()
	}
	s.renderers = byID
	s.countdown = countdown
	s.mu.Unlock()

	limit := run.TimeLimit()
	s.emit("step", stepPayload{
		StepIndex:        index,
		TotalSteps:       run.TotalSteps(),
		TimeLimitSeconds: limit,
		Questions:        views,
	})
	countdown.Reset(limit)
}

func (s *session) answer(payload answerPayload) {
	s.mu.Lock()
	r, ok := s.renderers[payload.QuestionID]
	s.mu.Unlock()
	if !ok {
		s.emitError(fmt.Sprintf("question %q is not part of the current step", payload.QuestionID))
		return
	}
	if err := r.Input(fmt.Sprint(payload.Value)); err != nil {
		s.emitError(fmt.Sprintf("invalid value for %s: %v", payload.QuestionID, err))
	}
}

// submit handles manual submits and timer expiry alike.
func (s *session) submit() {
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()
	if run == nil {
		s.emitError(domain.ErrNotReady.Error())
		return
	}

	out, err := run.Submit(s.ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrSubmissionPending) {
			s.log.Warn().Err(err).Int("step", run.StepIndex()).Msg("submit step")
		}
		s.emitError(err.Error())
		return
	}
	if out.Saved {
		s.emit("saved", savedPayload{StepIndex: out.StepIndex})
	}
	if out.Finished {
		s.stopCountdown()
		s.log.Info().Str("attempt_id", out.Attempt.ID).Msg("run finished")
		s.emit("finished", finishedPayload{AttemptID: out.Attempt.ID, Status: out.Attempt.Status})
		return
	}
	s.startStep(run)
}

func (s *session) stopCountdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countdown != nil {
		s.countdown.Stop()
	}
}

func (s *session) emitLanding() {
	payload := landingPayload{
		Action:  s.landing.Action().String(),
		Message: s.landing.Message(),
	}
	if s.landing.Action() != app.ActionRetry {
		quiz := s.landing.Quiz()
		attempt := s.landing.Attempt()
		payload.Title = quiz.Title
		payload.Description = quiz.Description
		payload.TotalSteps = len(quiz.Steps)
		payload.CurrentStepIndex = attempt.CurrentStepIndex
		payload.AttemptID = attempt.ID
	}
	s.emit("landing", payload)
}

func (s *session) emitError(message string) {
	s.emit("error", errorPayload{Message: message})
}

func (s *session) emit(typ string, payload any) {
	select {
	case s.send <- outboundMessage{Type: typ, Payload: payload}:
	case <-s.done:
	}
}

package devapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"career-quiz/internal/domain"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type Handler struct {
	service *Service
	log     zerolog.Logger
}

func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{service: service, log: log.With().Str("component", "devapi").Logger()}
}

// NewRouter wires the quiz endpoints plus a health check.
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(jsonMiddleware)
	h.RegisterRoutes(router)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	return router
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/quiz/seed", h.Seed).Methods("POST")
	router.HandleFunc("/api/quiz/{quizId}", h.GetQuiz).Methods("GET")
	router.HandleFunc("/api/attempt/start", h.StartAttempt).Methods("POST")
	router.HandleFunc("/api/attempt/{attemptId}/step", h.SubmitStep).Methods("POST")
	router.HandleFunc("/api/attempt/{attemptId}/finish", h.FinishAttempt).Methods("POST")
}

type startRequest struct {
	UserID string `json:"userId"`
	QuizID string `json:"quizId" validate:"required"`
}

type stepRequest struct {
	StepIndex *int              `json:"stepIndex" validate:"required,gte=0"`
	Responses []responseRequest `json:"responses" validate:"dive"`
}

type responseRequest struct {
	QuestionID       string `json:"questionId" validate:"required"`
	Value            any    `json:"value"`
	TimeTakenSeconds int    `json:"timeTakenSeconds" validate:"gte=0"`
}

func (h *Handler) Seed(w http.ResponseWriter, r *http.Request) {
	quizID, err := h.service.Seed(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"quizId": quizID})
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.Quiz(r.Context(), mux.Vars(r)["quizId"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.service.Start(r.Context(), req.UserID, req.QuizID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Info().Str("attempt_id", rec.ID).Str("user_id", rec.UserID).Int("step", rec.CurrentStepIndex).Msg("attempt started")
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) SubmitStep(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if !h.decode(w, r, &req) {
		return
	}
	sub := domain.StepSubmission{StepIndex: *req.StepIndex}
	for _, resp := range req.Responses {
		sub.Responses = append(sub.Responses, domain.Response{
			QuestionID:       resp.QuestionID,
			Value:            resp.Value,
			TimeTakenSeconds: resp.TimeTakenSeconds,
		})
	}
	rec, err := h.service.SubmitStep(r.Context(), mux.Vars(r)["attemptId"], sub)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "currentStepIndex": rec.CurrentStepIndex})
}

func (h *Handler) FinishAttempt(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Finish(r.Context(), mux.Vars(r)["attemptId"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
		return false
	}
	if err := domain.Validate(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrAttemptNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrStepOutOfOrder), errors.Is(err, domain.ErrAttemptCompleted):
		status = http.StatusConflict
	case errors.Is(err, ErrResponsesMismatch):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("request failed")
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn().Err(err).Msg("write response")
	}
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

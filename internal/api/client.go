// Package api is the HTTP client for the external quiz service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"career-quiz/internal/domain"
	"github.com/rs/zerolog"
)

// StatusError reports a non-2xx answer from the quiz service.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Client talks to the quiz service's JSON endpoints.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log.With().Str("component", "api_client").Logger() }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type seedResponse struct {
	QuizID string `json:"quizId"`
}

type startRequest struct {
	UserID string `json:"userId"`
	QuizID string `json:"quizId"`
}

// SeedQuiz asks the service to make the quiz available and returns its id.
func (c *Client) SeedQuiz(ctx context.Context) (string, error) {
	var resp seedResponse
	if err := c.do(ctx, http.MethodPost, "/api/quiz/seed", nil, &resp); err != nil {
		return "", fmt.Errorf("seed quiz: %w", err)
	}
	if resp.QuizID == "" {
		return "", errors.New("seed quiz: response has no quizId")
	}
	return resp.QuizID, nil
}

// LoadQuiz fetches a quiz definition.
func (c *Client) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := c.do(ctx, http.MethodGet, "/api/quiz/"+url.PathEscape(quizID), nil, &quiz)
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return domain.Quiz{}, fmt.Errorf("fetch quiz %s: %w", quizID, domain.ErrQuizNotFound)
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("fetch quiz %s: %w", quizID, err)
	}
	return quiz, nil
}

// StartAttempt starts, or resumes, the user's attempt at a quiz.
func (c *Client) StartAttempt(ctx context.Context, userID, quizID string) (domain.Attempt, error) {
	var wire wireAttempt
	if err := c.do(ctx, http.MethodPost, "/api/attempt/start", startRequest{UserID: userID, QuizID: quizID}, &wire); err != nil {
		return domain.Attempt{}, fmt.Errorf("start attempt: %w", err)
	}
	attempt := wire.toDomain()
	if attempt.ID == "" {
		return domain.Attempt{}, errors.New("start attempt: response has no attempt id")
	}
	if attempt.QuizID == "" {
		attempt.QuizID = quizID
	}
	return attempt, nil
}

// SubmitStep persists one step's responses. The acknowledgement body is ignored.
func (c *Client) SubmitStep(ctx context.Context, attemptID string, sub domain.StepSubmission) error {
	path := "/api/attempt/" + url.PathEscape(attemptID) + "/step"
	if err := c.do(ctx, http.MethodPost, path, sub, nil); err != nil {
		return fmt.Errorf("submit step %d: %w", sub.StepIndex, err)
	}
	return nil
}

// FinishAttempt finalises the attempt and returns the finished record.
func (c *Client) FinishAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var wire wireAttempt
	path := "/api/attempt/" + url.PathEscape(attemptID) + "/finish"
	if err := c.do(ctx, http.MethodPost, path, nil, &wire); err != nil {
		return domain.Attempt{}, fmt.Errorf("finish attempt: %w", err)
	}
	attempt := wire.toDomain()
	if attempt.ID == "" {
		attempt.ID = attemptID
	}
	return attempt, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return err
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("quiz api call")

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: errorMessage(payload)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage pulls a readable message out of an error body.
func errorMessage(payload []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	msg := strings.TrimSpace(string(payload))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

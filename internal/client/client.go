// Package client is a small REST client for the quiz API, used to pull
// remote state into the local mirror.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
	"github.com/gokatarajesh/quiz-studio/internal/mirror"
	httperrors "github.com/gokatarajesh/quiz-studio/pkg/http/errors"
)

var _ mirror.Source = (*Client)(nil)

// Client talks to the API rooted at baseURL, e.g. http://localhost:8080/api.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// SetToken authenticates subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

type session struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Login opens a session and keeps its token for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (domain.User, error) {
	var s session
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/users/login", body, &s); err != nil {
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	c.token = s.Token
	return s.User, nil
}

// Register creates an account and keeps its token for later calls.
func (c *Client) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	var s session
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/users/register", body, &s); err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}
	c.token = s.Token
	return s.User, nil
}

func (c *Client) Profile(ctx context.Context) (domain.User, error) {
	var payload struct {
		User domain.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/profile", nil, &payload); err != nil {
		return domain.User{}, fmt.Errorf("profile: %w", err)
	}
	return payload.User, nil
}

func (c *Client) PublicQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var quizzes []domain.Quiz
	if err := c.do(ctx, http.MethodGet, "/quizzes", nil, &quizzes); err != nil {
		return nil, fmt.Errorf("public quizzes: %w", err)
	}
	return quizzes, nil
}

func (c *Client) MyQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var quizzes []domain.Quiz
	if err := c.do(ctx, http.MethodGet, "/quizzes/user/me", nil, &quizzes); err != nil {
		return nil, fmt.Errorf("own quizzes: %w", err)
	}
	return quizzes, nil
}

func (c *Client) MyResults(ctx context.Context) ([]domain.ResultView, error) {
	var results []domain.ResultView
	if err := c.do(ctx, http.MethodGet, "/results/user/me", nil, &results); err != nil {
		return nil, fmt.Errorf("own results: %w", err)
	}
	return results, nil
}

// CreateQuiz publishes a draft under the session's account.
func (c *Client) CreateQuiz(ctx context.Context, draft domain.Draft) (domain.Quiz, error) {
	var q domain.Quiz
	if err := c.do(ctx, http.MethodPost, "/quizzes", draft, &q); err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	return q, nil
}

// RecordResult stores a self-reported score for the session's account.
func (c *Client) RecordResult(ctx context.Context, quizID uuid.UUID, score, total int) (domain.Result, error) {
	var r domain.Result
	body := map[string]interface{}{"quizId": quizID, "score": score, "totalQuestions": total}
	if err := c.do(ctx, http.MethodPost, "/results", body, &r); err != nil {
		return domain.Result{}, fmt.Errorf("record result: %w", err)
	}
	return r, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeError maps an API error response back onto the domain taxonomy.
func decodeError(resp *http.Response) error {
	var payload httperrors.ErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return &domain.ValidationError{Field: payload.Field, Message: payload.Message}
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, payload.Message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrConflict, payload.Message)
	case http.StatusUnauthorized:
		if payload.Error == httperrors.ErrCodeInvalidCredentials {
			return domain.ErrInvalidCredentials
		}
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, payload.Message)
	default:
		return fmt.Errorf("api responded %d: %s", resp.StatusCode, payload.Message)
	}
}

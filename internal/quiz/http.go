package quiz

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-studio/internal/auth"
	"github.com/gokatarajesh/quiz-studio/internal/domain"
	httperrors "github.com/gokatarajesh/quiz-studio/pkg/http/errors"
)

// HTTPHandlers exposes quiz and result endpoints.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

// RecordResultRequest is the body of POST /results.
type RecordResultRequest struct {
	QuizID         uuid.UUID `json:"quizId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
}

// AttemptRequest is the body of POST /quizzes/{id}/attempts.
type AttemptRequest struct {
	Answers []int `json:"answers"`
}

// ListPublic handles GET /quizzes
func (h *HTTPHandlers) ListPublic(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.svc.ListPublicQuizzes(r.Context())
	if err != nil {
		httperrors.RespondDomainError(w, err, h.logger)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, nonNil(quizzes))
}

// Get handles GET /quizzes/{id}
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q, err := h.svc.GetQuiz(r.Context(), id)
	if err != nil {
		httperrors.RespondDomainError(w, err, h.logger)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, q)
}

// ListMine handles GET /quizzes/user/me
func (h *HTTPHandlers) ListMine(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.svc.ListQuizzesByOwner(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		httperrors.RespondDomainError(w, err, h.logger)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, nonNil(quizzes))
}

// Create handles POST /quizzes
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var draft domain.Draft
	if !decode(w, r, &draft) {
		return
	}
	q, err := h.svc.CreateQuiz(r.Context(), auth.UserIDFromContext(r.Context()), draft)
	if err != nil {
		httperrors.RespondDomainError(w, err, h.logger)
		return
	}
	httperrors.RespondJSON(w, http.StatusCreated, q)
}

// Update handles PUT /quizzes/{id}
func (h *HTTPHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var draft domain.Draft
	if !decode(w, r, &draft) {
		return
	}
	q, err := h.svc.UpdateQuiz(r.Context(), id, auth.UserIDFromContext(r.Context()), draft)
	if err != nil {
		httperrors.RespondDomainError(w, err, h.logger)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, q)
}

// Delete handles DELETE /quizzes/{id}
func (h *HTTPHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteQuiz(r.Context(), id, auth.UserIDFromContext(r.Context())); err != nil {
		httperrors.RespondDomainError(w, err, h.logger)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, map[string]string{"message": "Quiz deleted successfully"})
}

// SubmitAttempt handles POST /quizzes/{id}/attempts
func (h *HTTPHandlers) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req AttemptRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.SubmitAttempt(r.Context(), id, auth.UserIDFromContext(r.Context()), req.Answers)
	if err != nil {
		httperrors.RespondDomainError(w, err, h.logger)
		return
	}
	httperrors.RespondJSON(w, http.StatusCreated, res)
}

// RecordResult handles POST /results
func (h *HTTPHandlers) RecordResult(w http.ResponseWriter, r *http.Request) {
	var req RecordResultRequest
	if !decode(w, r, &req) {
		return
	}
	if req.QuizID == uuid.Nil {
		httperrors.RespondDomainError(w, domain.NewValidationError("quizId", "is required"), h.logger)
		return
	}
	res, err := h.svc.RecordResult(r.Context(), req.QuizID, auth.UserIDFromContext(r.Context()), req.Score, req.TotalQuestions)
	if err != nil {
		httperrors.RespondDomainError(w, err, h.logger)
		return
	}
	httperrors.RespondJSON(w, http.StatusCreated, res)
}

// ListMyResults handles GET /results/user/me
func (h *HTTPHandlers) ListMyResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.ListResultsByUser(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		httperrors.RespondDomainError(w, err, h.logger)
		return
	}
	if results == nil {
		results = []domain.ResultView{}
	}
	httperrors.RespondJSON(w, http.StatusOK, results)
}

// Stats handles GET /users/me/stats
func (h *HTTPHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		httperrors.RespondDomainError(w, err, h.logger)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, st)
}

// pathID parses the {id} wildcard. Malformed ids cannot name a quiz, so
// they are reported as not found.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Quiz not found")
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return false
	}
	return true
}

func nonNil(quizzes []domain.Quiz) []domain.Quiz {
	if quizzes == nil {
		return []domain.Quiz{}
	}
	return quizzes
}

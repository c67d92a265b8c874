package leaderboard

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
	httperrors "github.com/gokatarajesh/quiz-studio/pkg/http/errors"
)

// QuizGetter resolves a quiz so unknown ids 404 instead of showing an empty board.
type QuizGetter interface {
	GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error)
}

// HTTPHandler exposes REST endpoints for leaderboard queries.
type HTTPHandler struct {
	board   *Board
	quizzes QuizGetter
	logger  zerolog.Logger
	now     func() time.Time
}

// NewHTTPHandler constructs a leaderboard HTTP handler.
func NewHTTPHandler(board *Board, quizzes QuizGetter, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		board:   board,
		quizzes: quizzes,
		logger:  logger.With().Str("component", "leaderboard_http").Logger(),
		now:     time.Now,
	}
}

// HandleGet responds with the quiz's leaderboard.
// Route: GET /quizzes/{id}/leaderboard?limit=10
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Quiz not found")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	ctx := r.Context()
	if _, err := h.quizzes.GetQuiz(ctx, id); err != nil {
		httperrors.RespondDomainError(w, err, h.logger)
		return
	}

	top, err := h.board.Top(ctx, id, limit)
	if err != nil {
		h.logger.Warn().Err(err).Str("quiz_id", id.String()).Msg("leaderboard fetch failed")
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Leaderboard unavailable")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"quizId":      id,
		"top":         top,
		"retrievedAt": h.now().UTC().Format(time.RFC3339),
	})
}

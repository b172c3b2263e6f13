package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/you/subwayviz/arrivals"
	"github.com/you/subwayviz/models"
	"github.com/you/subwayviz/repository"
)

// Fetcher defines the upstream arrival query used by the handlers
type Fetcher interface {
	Fetch(ctx context.Context, station string) ([]models.ArrivalRecord, error)
}

// HandoffStore defines the handoff operations used by the handlers
type HandoffStore interface {
	Save(ctx context.Context, h models.Handoff) error
	Get(ctx context.Context, id uuid.UUID) (*models.Handoff, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// User-facing messages
const (
	MsgEmptyResult    = "잘못된 역 이름입니다. 다시 입력해주세요."
	MsgTransportError = "API 호출 중 오류가 발생했습니다. 다시 시도해주세요."
	MsgQueryInFlight  = "이미 조회 중입니다. 잠시 후 다시 시도해주세요."
	MsgNoData         = "도착 정보를 찾을 수 없습니다. 다시 검색해주세요."
)

// fetchErrorMessage maps a Fetch error to its user-facing message and the
// status the response should carry
func fetchErrorMessage(err error) (string, int) {
	if arrivals.KindOf(err) == arrivals.KindEmptyResult {
		return MsgEmptyResult, http.StatusNotFound
	}
	return MsgTransportError, http.StatusBadGateway
}

// saveHandoff prunes expired handoffs and stores a fresh snapshot of records
func saveHandoff(ctx context.Context, store HandoffStore, station string, records []models.ArrivalRecord, ttl time.Duration, now time.Time) (models.Handoff, error) {
	if deleted, err := store.DeleteExpired(ctx, now); err != nil {
		log.Warn().Err(err).Msg("Failed to prune expired handoffs")
	} else if deleted > 0 {
		log.Debug().Int64("deleted", deleted).Msg("Pruned expired handoffs")
	}

	h := models.NewHandoff(station, records, now, ttl)
	if err := store.Save(ctx, h); err != nil {
		return models.Handoff{}, fmt.Errorf("failed to save handoff: %w", err)
	}
	return h, nil
}

// loadHandoff resolves a handoff ID from a URL. ok is false when there is
// nothing to visualize; err is set only for store failures.
func loadHandoff(ctx context.Context, store HandoffStore, rawID string) (h *models.Handoff, ok bool, err error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, false, nil
	}

	h, err = store.Get(ctx, id)
	if errors.Is(err, repository.ErrHandoffNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(h.Records) == 0 {
		return h, false, nil
	}
	return h, true, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string, details map[string]interface{}) {
	writeJSON(w, status, ErrorResponse{Error: msg, Details: details})
}

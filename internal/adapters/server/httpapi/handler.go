// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/evanschultz/tackboard/internal/adapters/server/common"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	boards common.BoardService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter over the board service.
func NewHandler(boards common.BoardService) *Handler {
	return &Handler{boards: boards}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.boards == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "board service is not configured",
		})
		return
	}
	path := normalizePath(r.URL.Path)
	switch {
	case path == "boards":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListBoards(w, r)
	case strings.HasPrefix(path, "boards/"):
		boardID, tail, ok := splitResource(strings.TrimPrefix(path, "boards/"))
		if !ok || (tail != "" && tail != "moves") {
			writeNotFound(w)
			return
		}
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		if tail == "moves" {
			h.handleListMoves(w, r, boardID)
			return
		}
		h.handleBoardState(w, r, boardID)
	case strings.HasPrefix(path, "items/"):
		itemID, tail, ok := splitResource(strings.TrimPrefix(path, "items/"))
		if !ok || tail != "move" {
			writeNotFound(w)
			return
		}
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleMoveItem(w, r, itemID)
	default:
		writeNotFound(w)
	}
}

// handleListBoards serves GET `/boards`.
func (h *Handler) handleListBoards(w http.ResponseWriter, r *http.Request) {
	req := common.ListBoardsRequest{}
	if raw := strings.TrimSpace(r.URL.Query().Get("include_archived")); raw != "" {
		includeArchived, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, APIError{
				Code:    "invalid_request",
				Message: "include_archived must be a boolean",
			})
			return
		}
		req.IncludeArchived = includeArchived
	}
	boards, err := h.boards.ListBoards(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"boards": boards,
	})
}

// handleBoardState serves GET `/boards/{id}`.
func (h *Handler) handleBoardState(w http.ResponseWriter, r *http.Request, boardID string) {
	state, err := h.boards.BoardState(r.Context(), boardID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleListMoves serves GET `/boards/{id}/moves`.
func (h *Handler) handleListMoves(w http.ResponseWriter, r *http.Request, boardID string) {
	req := common.ListMovesRequest{BoardID: boardID}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, APIError{
				Code:    "invalid_request",
				Message: "limit must be an integer",
			})
			return
		}
		req.Limit = limit
	}
	moves, err := h.boards.ListMoves(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"moves": moves,
	})
}

// handleMoveItem serves POST `/items/{id}/move`.
func (h *Handler) handleMoveItem(w http.ResponseWriter, r *http.Request, itemID string) {
	var payload struct {
		TargetGroupID string `json:"target_group_id"`
		TargetOrder   *int   `json:"target_order"`
	}
	if err := decodeJSONBody(r.Context(), w, r, &payload); err != nil {
		writeErrorFrom(w, err)
		return
	}
	result, err := h.boards.MoveItem(r.Context(), common.MoveItemRequest{
		ItemID:        itemID,
		TargetGroupID: payload.TargetGroupID,
		TargetOrder:   payload.TargetOrder,
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// splitResource parses `{id}` or `{id}/{action}` and rejects deeper paths.
func splitResource(rest string) (string, string, bool) {
	id, tail, _ := strings.Cut(rest, "/")
	id = strings.TrimSpace(id)
	if id == "" || strings.Contains(tail, "/") {
		return "", "", false
	}
	return id, tail, true
}

// normalizePath strips surrounding slashes so routes match "boards/{id}".
func normalizePath(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}

// writeNotFound writes the unmatched-route response.
func writeNotFound(w http.ResponseWriter) {
	writeJSONError(w, http.StatusNotFound, APIError{
		Code:    "not_found",
		Message: "endpoint not found",
	})
}

// errorStatuses maps adapter sentinel errors to HTTP status and error code, checked in order.
var errorStatuses = []struct {
	target error
	status int
	code   string
	hint   string
}{
	{target: common.ErrNotFound, status: http.StatusNotFound, code: "not_found"},
	{
		target: common.ErrInvalidRequest,
		status: http.StatusBadRequest,
		code:   "invalid_request",
		hint:   "target_group_id must name a column on the item's board and target_order must be >= 0.",
	},
	{target: common.ErrServiceUnavailable, status: http.StatusServiceUnavailable, code: "service_unavailable"},
}

// writeErrorFrom writes the envelope for err; unmapped errors are internal_error.
func writeErrorFrom(w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	for _, m := range errorStatuses {
		if errors.Is(err, m.target) {
			writeJSONError(w, m.status, APIError{Code: m.code, Message: err.Error(), Hint: m.hint})
			return
		}
	}
	writeJSONError(w, http.StatusInternalServerError, APIError{Code: "internal_error", Message: err.Error()})
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}

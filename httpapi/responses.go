package httpapi

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/lendkit/lending-ledger-go/ledger"
)

var json = jsoniter.ConfigFastest

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if payload == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
}

// statusForError maps ledger errors onto HTTP status codes. Concurrency
// conflicts only surface here after the handler's retries are exhausted, so
// they are reported as temporary unavailability.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrBookNotFound),
		errors.Is(err, ledger.ErrMemberNotFound),
		errors.Is(err, ledger.ErrLoanNotFound):
		return http.StatusNotFound

	case errors.Is(err, ledger.ErrNotEligible):
		return http.StatusForbidden

	case errors.Is(err, ledger.ErrInsufficientInventory),
		errors.Is(err, ledger.ErrAlreadyReturned),
		errors.Is(err, ledger.ErrMaxExtensionsReached):
		return http.StatusConflict

	case errors.Is(err, ledger.ErrInvalidCopyCount),
		errors.Is(err, ledger.ErrNegativeTotalCopies):
		return http.StatusBadRequest

	case errors.Is(err, ledger.ErrConcurrencyConflict):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/present"
)

type errorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Unsaved bool   `json:"unsaved,omitempty"`
}

type entryResponse struct {
	Entry   present.EntryRow `json:"entry"`
	Unsaved bool             `json:"unsaved"`
	Error   string           `json:"error,omitempty"`
}

type removeResponse struct {
	Removed bool   `json:"removed"`
	Unsaved bool   `json:"unsaved"`
	Error   string `json:"error,omitempty"`
}

type listResponse struct {
	Entries []present.EntryRow `json:"entries"`
	Unsaved bool               `json:"unsaved"`
}

type categoryTotal struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Amount   string `json:"amount"`
	Display  string `json:"display"`
}

type summaryResponse struct {
	Balance   string          `json:"balance"`
	Income    string          `json:"income"`
	Expense   string          `json:"expense"`
	Currency  string          `json:"currency"`
	Count     int             `json:"count"`
	Breakdown []categoryTotal `json:"breakdown"`
	Display   present.Report  `json:"display"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeLedgerError maps a ledger error to its status code and logs it.
func writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.FromContext(r.Context())
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		logger.InfoContext(r.Context(), "Rejected input",
			log.NewFields().WithError(err, log.ErrorTypeValidation).ToSlice()...)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: ve.Field})
	case core.IsPersistence(err):
		logger.ErrorContext(r.Context(), "Ledger not saved",
			log.NewFields().WithError(err, log.ErrorTypePersistence).ToSlice()...)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Unsaved: true})
	default:
		logger.ErrorContext(r.Context(), "Request failed",
			log.NewFields().WithError(err, log.ErrorTypeInternal).ToSlice()...)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

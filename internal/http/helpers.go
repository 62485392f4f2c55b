package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"subsentry/internal/core"
	"subsentry/internal/kv"
	"subsentry/internal/ledger"
	"subsentry/internal/session"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError translates domain errors into a status code and a
// message fit for a toast notification.
func respondDomainError(w http.ResponseWriter, err error) {
	status, message := http.StatusInternalServerError, "Something went wrong. Please try again."

	switch {
	case errors.Is(err, core.ErrEmptyName):
		status, message = http.StatusBadRequest, "Subscription name is required."
	case errors.Is(err, core.ErrNegativeCost):
		status, message = http.StatusBadRequest, "Cost cannot be negative."
	case errors.Is(err, core.ErrUnknownCurrency), errors.Is(err, core.ErrMissingRate):
		status, message = http.StatusBadRequest, "Unsupported currency."
	case errors.Is(err, core.ErrInvalidCycle):
		status, message = http.StatusBadRequest, "Invalid billing cycle."
	case errors.Is(err, core.ErrInvalidCategory):
		status, message = http.StatusBadRequest, "Invalid category."
	case errors.Is(err, core.ErrInvalidStatus):
		status, message = http.StatusBadRequest, "Invalid status."
	case errors.Is(err, core.ErrRenewalDateRequired):
		status, message = http.StatusBadRequest, "Renewal date is required for recurring subscriptions."
	case errors.Is(err, core.ErrRenewalDateOneTime):
		status, message = http.StatusBadRequest, "One-time purchases do not renew."
	case errors.Is(err, ledger.ErrNotFound):
		status, message = http.StatusNotFound, "Subscription not found."
	case errors.Is(err, session.ErrDuplicateEmail):
		status, message = http.StatusConflict, "An account with this email already exists."
	case errors.Is(err, session.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "Invalid email or password."
	case errors.Is(err, kv.ErrStorage):
		status, message = http.StatusServiceUnavailable, "Could not save your changes. Please try again."
	}

	respondError(w, status, message)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"subsentry/internal/core"
	"subsentry/internal/ledger"
)

// subscriptionRequest is the wire shape for both add and update; absent
// fields in an update keep their current value.
type subscriptionRequest struct {
	Name         *string          `json:"name"`
	Cost         *decimal.Decimal `json:"cost"`
	Currency     *string          `json:"currency"`
	BillingCycle *string          `json:"billingCycle"`
	RenewalDate  *string          `json:"renewalDate"`
	Category     *string          `json:"category"`
	Status       *string          `json:"status"`
	Notes        *string          `json:"notes"`
}

func (req *subscriptionRequest) toInput() (ledger.Input, error) {
	var in ledger.Input
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Cost != nil {
		in.Cost = *req.Cost
	}
	if req.Currency != nil {
		in.Currency = core.Currency(*req.Currency)
	}
	if req.BillingCycle != nil {
		in.BillingCycle = core.BillingCycle(*req.BillingCycle)
	}
	if req.Category != nil {
		in.Category = core.Category(*req.Category)
	}
	if req.Notes != nil {
		in.Notes = *req.Notes
	}
	if req.RenewalDate != nil && *req.RenewalDate != "" {
		date, err := core.ParseDate(*req.RenewalDate)
		if err != nil {
			return ledger.Input{}, err
		}
		in.RenewalDate = &date
	}
	return in, nil
}

func (req *subscriptionRequest) toPatch() (ledger.Patch, error) {
	p := ledger.Patch{
		Name:  req.Name,
		Cost:  req.Cost,
		Notes: req.Notes,
	}
	if req.Currency != nil {
		c := core.Currency(*req.Currency)
		p.Currency = &c
	}
	if req.BillingCycle != nil {
		b := core.BillingCycle(*req.BillingCycle)
		p.BillingCycle = &b
	}
	if req.Category != nil {
		c := core.Category(*req.Category)
		p.Category = &c
	}
	if req.Status != nil {
		st := core.Status(*req.Status)
		p.Status = &st
	}
	if req.RenewalDate != nil && *req.RenewalDate != "" {
		date, err := core.ParseDate(*req.RenewalDate)
		if err != nil {
			return ledger.Patch{}, err
		}
		p.RenewalDate = &date
	}
	return p, nil
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request, userID string) {
	sortParam := r.URL.Query().Get("sort")
	if sortParam != "" && !core.SortOption(sortParam).Valid() {
		respondError(w, http.StatusBadRequest, "Unknown sort option.")
		return
	}

	var (
		subs []core.Subscription
		err  error
	)
	if sortParam != "" {
		subs, err = s.subscriptions.ListSorted(r.Context(), userID, core.SortOption(sortParam))
	} else {
		subs, err = s.subscriptions.List(r.Context(), userID)
	}
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if subs == nil {
		subs = []core.Subscription{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
}

func (s *Server) handleAddSubscription(w http.ResponseWriter, r *http.Request, userID string) {
	var req subscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(w, http.StatusBadRequest, "Renewal date must be in YYYY-MM-DD format.")
		return
	}

	sub, err := s.subscriptions.Add(r.Context(), userID, in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"message":      "Subscription added successfully!",
		"subscription": sub,
	})
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request, userID string) {
	var req subscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		respondError(w, http.StatusBadRequest, "Renewal date must be in YYYY-MM-DD format.")
		return
	}

	sub, err := s.subscriptions.Update(r.Context(), userID, r.PathValue("id"), patch)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":      "Subscription updated successfully!",
		"subscription": sub,
	})
}

func (s *Server) handleRemoveSubscription(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.subscriptions.Remove(r.Context(), userID, r.PathValue("id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Subscription deleted."})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, userID string) {
	summary, err := s.subscriptions.Summarize(r.Context(), userID, core.DateOf(time.Now().UTC()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if summary.ByCategory == nil {
		summary.ByCategory = []core.CategoryShare{}
	}
	if summary.Alerts == nil {
		summary.Alerts = []core.Alert{}
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request, userID string) {
	summary, err := s.subscriptions.Summarize(r.Context(), userID, core.DateOf(time.Now().UTC()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	alerts := summary.Alerts
	if alerts == nil {
		alerts = []core.Alert{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"renewalAlerts": alerts})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.subscriptions.ExportSnapshot(r.Context(), userID); err != nil {
		respondError(w, http.StatusServiceUnavailable, "Export failed. Please try again later.")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Snapshot exported."})
}

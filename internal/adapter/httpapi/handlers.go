package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mfbatista/carteira-backend/internal/adapter/tabular"
	"github.com/mfbatista/carteira-backend/internal/domain"
	"github.com/mfbatista/carteira-backend/internal/usecase/rebalance"
)

// tableRequest is the shared request body for the reconcile and plan
// endpoints. Holdings and targets arrive as raw rows keyed by whatever
// column names the caller's spreadsheet used; cells may be JSON strings or
// numbers, and the tabular adapter maps both.
type tableRequest struct {
	Holdings     []map[string]any `json:"holdings"`
	Targets      []map[string]any `json:"targets"`
	Contribution string           `json:"contribution"`
	Mode         string           `json:"mode"`
	WithPrices   bool             `json:"with_prices"`
	Epsilon      *float64         `json:"epsilon"`
}

func (s *Server) parseInput(r *http.Request) (rebalance.BuildPlanInput, error) {
	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return rebalance.BuildPlanInput{}, errors.New("invalid JSON body")
	}

	holdings, err := tabular.MapHoldings(req.Holdings)
	if err != nil {
		return rebalance.BuildPlanInput{}, err
	}
	targets, err := tabular.MapTargets(req.Targets)
	if err != nil {
		return rebalance.BuildPlanInput{}, err
	}

	return rebalance.BuildPlanInput{
		Holdings:     holdings,
		Targets:      targets,
		Contribution: req.Contribution,
		Mode:         domain.AllocationMode(req.Mode),
		WithPrices:   req.WithPrices,
		Epsilon:      req.Epsilon,
	}, nil
}

// handleReconcile returns the reconciled table: current vs ideal allocation,
// deviation and status per asset, most under-allocated first.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	input, err := s.parseInput(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Reconcile(r.Context(), input)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, reconcileResponse(result))
}

// handlePlan returns a contribution plan for the submitted tables and amount.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	input, err := s.parseInput(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan, result, err := s.service.BuildPlan(r.Context(), input)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, planResponse(plan, result))
}

// handleQuote resolves a live price for a single asset.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if s.prices == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no price feed configured")
		return
	}

	asset := chi.URLParam(r, "asset")
	quote, err := s.prices.Quote(r.Context(), asset)
	if err != nil {
		if errors.Is(err, domain.ErrQuoteUnavailable) {
			s.writeError(w, http.StatusNotFound, "quote unavailable for "+domain.CanonicalAssetID(asset))
			return
		}
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, quoteResponse(quote))
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fairtab/fairtab/internal/ledger"
	"github.com/fairtab/fairtab/internal/models"
)

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.ledger.State(r.Context()))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ident := s.resolver.Current()
	respondJSON(w, http.StatusOK, map[string]any{
		"online":        s.monitor.Online(),
		"identityState": ident.State.String(),
		"email":         ident.Email,
	})
}

func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.ledger.State(r.Context()).Friends)
}

func (s *Server) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	var p models.Person
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	saved, err := s.ledger.AddFriend(r.Context(), p)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateFriend(w http.ResponseWriter, r *http.Request) {
	var p models.Person
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.Email = chi.URLParam(r, "email")
	saved, err := s.ledger.UpdateFriend(r.Context(), p)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.RemoveFriend(r.Context(), chi.URLParam(r, "email")); err != nil {
		respondLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.ledger.State(r.Context()).Groups)
}

func (s *Server) handleAddGroup(w http.ResponseWriter, r *http.Request) {
	var g models.Group
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	saved, err := s.ledger.AddGroup(r.Context(), g)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	var g models.Group
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	g.ID = chi.URLParam(r, "id")
	saved, err := s.ledger.UpdateGroup(r.Context(), g)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleRemoveGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.RemoveGroup(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGroupExpenses(w http.ResponseWriter, r *http.Request) {
	expenses := s.ledger.GroupExpenses(r.Context(), chi.URLParam(r, "id"))
	respondJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.ledger.State(r.Context()).Expenses)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var e models.Expense
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	saved, err := s.ledger.AddExpense(r.Context(), e)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var e models.Expense
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e.ID = chi.URLParam(r, "id")
	saved, err := s.ledger.UpdateExpense(r.Context(), e)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleRemoveExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.RemoveExpense(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.ledger.Balances(r.Context()))
}

func (s *Server) handleBalanceSummary(w http.ResponseWriter, r *http.Request) {
	actor, err := s.ledger.CurrentActor(r.Context())
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	sheet := s.ledger.Balances(r.Context())
	summary := sheet.SummaryFor(actor.Email)
	respondJSON(w, http.StatusOK, map[string]any{
		"email":     actor.Email,
		"youOwe":    summary.YouOwe,
		"owedToYou": summary.OwedToYou,
		"net":       summary.Net,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.ledger.Export(r.Context()))
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Import(r.Context(), r.Body); err != nil {
		slog.Error("snapshot import failed", "error", err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.resolver.SignOut(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondLedgerError maps facade errors to HTTP status codes.
func respondLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotAuthenticated):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrEmptyEmail):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("mutation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

package http

import (
	"net/http"

	"milkbook/internal/core"
)

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	account, err := s.ledger.CreateAccount(r.Context(), core.Account{
		Code:     sanitizeInput(req.Code),
		Kind:     core.AccountKind(req.Kind),
		Name:     sanitizeInput(req.Name),
		Phone:    sanitizeInput(req.Phone),
		Address:  sanitizeInput(req.Address),
		MilkRate: req.MilkRate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

// handleListAccounts requires a kind filter: the two ledgers are always
// viewed separately.
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	kind := core.AccountKind(r.URL.Query().Get("kind"))

	accounts, err := s.ledger.ListAccounts(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.ledger.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err := s.ledger.UpdateAccount(r.Context(), core.Account{
		ID:       r.PathValue("id"),
		Name:     sanitizeInput(req.Name),
		Phone:    sanitizeInput(req.Phone),
		Address:  sanitizeInput(req.Address),
		MilkRate: req.MilkRate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	account, err := s.ledger.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err := s.ledger.DeleteAccount(r.Context(), r.PathValue("id"),
		sanitizeInput(req.Reason), sanitizeInput(req.DeletedBy))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

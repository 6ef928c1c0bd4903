package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/features/command/registermember"
	"github.com/lendkit/lending-ledger-go/features/command/renewmembership"
	"github.com/lendkit/lending-ledger-go/features/query/memberloans"
)

type registerMemberRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) handleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var req registerMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if req.Name == "" || req.Email == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name and email must not be empty"})
		return
	}

	memberID := uuid.New()
	command := registermember.BuildCommand(memberID, req.Name, req.Email, s.clock())

	if _, err := s.registerMemberHandler.Handle(r.Context(), command); err != nil {
		s.writeError(w, err)
		return
	}

	member, err := s.store.GetMember(r.Context(), memberID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, member)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid member id"})
		return
	}

	member, err := s.store.GetMember(r.Context(), memberID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, member)
}

func (s *Server) handleRenewMembership(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid member id"})
		return
	}

	command := renewmembership.BuildCommand(memberID, s.clock())

	if _, err = s.renewMembershipHandler.Handle(r.Context(), command); err != nil {
		s.writeError(w, err)
		return
	}

	member, err := s.store.GetMember(r.Context(), memberID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, member)
}

func (s *Server) handleMemberLoans(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid member id"})
		return
	}

	query := memberloans.BuildQuery(memberID, s.clock())

	result, err := s.memberLoansHandler.Handle(r.Context(), query)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

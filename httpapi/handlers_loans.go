package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/features/command/adjustloancopies"
	"github.com/lendkit/lending-ledger-go/features/command/borrowbook"
	"github.com/lendkit/lending-ledger-go/features/command/cancelloan"
	"github.com/lendkit/lending-ledger-go/features/command/extendloan"
	"github.com/lendkit/lending-ledger-go/features/command/returnbook"
	"github.com/lendkit/lending-ledger-go/features/query/lateloans"
)

type borrowBookRequest struct {
	BookID   uuid.UUID `json:"bookId"`
	MemberID uuid.UUID `json:"memberId"`
	Copies   int       `json:"copies"`
}

type adjustLoanRequest struct {
	Copies int        `json:"copies"`
	DueAt  *time.Time `json:"dueAt,omitempty"`
}

func (s *Server) handleBorrowBook(w http.ResponseWriter, r *http.Request) {
	var req borrowBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	loanID := uuid.New()
	command := borrowbook.BuildCommand(loanID, req.BookID, req.MemberID, req.Copies, s.clock())

	if _, err := s.borrowBookHandler.Handle(r.Context(), command); err != nil {
		s.writeError(w, err)
		return
	}

	loan, err := s.store.GetLoan(r.Context(), loanID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, loan)
}

func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid loan id"})
		return
	}

	loan, err := s.store.GetLoan(r.Context(), loanID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, loan)
}

func (s *Server) handleExtendLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid loan id"})
		return
	}

	command := extendloan.BuildCommand(loanID, s.clock())

	if _, err = s.extendLoanHandler.Handle(r.Context(), command); err != nil {
		s.writeError(w, err)
		return
	}

	loan, err := s.store.GetLoan(r.Context(), loanID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, loan)
}

func (s *Server) handleReturnBook(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid loan id"})
		return
	}

	command := returnbook.BuildCommand(loanID, s.clock())

	if _, err = s.returnBookHandler.Handle(r.Context(), command); err != nil {
		s.writeError(w, err)
		return
	}

	loan, err := s.store.GetLoan(r.Context(), loanID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, loan)
}

func (s *Server) handleAdjustLoanCopies(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid loan id"})
		return
	}

	var req adjustLoanRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	command := adjustloancopies.BuildCommand(loanID, req.Copies, req.DueAt)

	if _, err = s.adjustCopiesHandler.Handle(r.Context(), command); err != nil {
		s.writeError(w, err)
		return
	}

	loan, err := s.store.GetLoan(r.Context(), loanID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, loan)
}

func (s *Server) handleCancelLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid loan id"})
		return
	}

	command := cancelloan.BuildCommand(loanID)

	if _, err = s.cancelLoanHandler.Handle(r.Context(), command); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleLateLoans(w http.ResponseWriter, r *http.Request) {
	query := lateloans.BuildQuery(s.clock())

	result, err := s.lateLoansHandler.Handle(r.Context(), query)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

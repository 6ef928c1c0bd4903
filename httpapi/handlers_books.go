package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/features/command/addbook"
	"github.com/lendkit/lending-ledger-go/features/command/setbookcopies"
)

type addBookRequest struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Tags        []string `json:"tags"`
	TotalCopies int      `json:"totalCopies"`
}

type setBookCopiesRequest struct {
	TotalCopies int `json:"totalCopies"`
}

func (s *Server) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var req addBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if req.Title == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "title must not be empty"})
		return
	}

	bookID := uuid.New()
	command := addbook.BuildCommand(bookID, req.Title, req.Authors, req.Tags, req.TotalCopies, s.clock())

	if _, err := s.addBookHandler.Handle(r.Context(), command); err != nil {
		s.writeError(w, err)
		return
	}

	book, err := s.store.GetBook(r.Context(), bookID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, book)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid book id"})
		return
	}

	book, err := s.store.GetBook(r.Context(), bookID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleSetBookCopies(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid book id"})
		return
	}

	var req setBookCopiesRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	command := setbookcopies.BuildCommand(bookID, req.TotalCopies)

	if _, err = s.setBookCopiesHandler.Handle(r.Context(), command); err != nil {
		s.writeError(w, err)
		return
	}

	book, err := s.store.GetBook(r.Context(), bookID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, book)
}

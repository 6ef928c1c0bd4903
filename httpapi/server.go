package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/lendkit/lending-ledger-go/features/command/addbook"
	"github.com/lendkit/lending-ledger-go/features/command/adjustloancopies"
	"github.com/lendkit/lending-ledger-go/features/command/borrowbook"
	"github.com/lendkit/lending-ledger-go/features/command/cancelloan"
	"github.com/lendkit/lending-ledger-go/features/command/extendloan"
	"github.com/lendkit/lending-ledger-go/features/command/registermember"
	"github.com/lendkit/lending-ledger-go/features/command/renewmembership"
	"github.com/lendkit/lending-ledger-go/features/command/returnbook"
	"github.com/lendkit/lending-ledger-go/features/command/setbookcopies"
	"github.com/lendkit/lending-ledger-go/features/query/lateloans"
	"github.com/lendkit/lending-ledger-go/features/query/memberloans"
	"github.com/lendkit/lending-ledger-go/ledger"
)

// LendingStore is the full operation set the API serves. Both the PostgreSQL
// engine and the in-memory engine satisfy it.
type LendingStore interface {
	AddBook(ctx context.Context, book ledger.Book) error
	GetBook(ctx context.Context, bookID uuid.UUID) (ledger.Book, error)
	SetBookTotalCopies(ctx context.Context, bookID uuid.UUID, newTotal int) (ledger.Book, error)
	RegisterMember(ctx context.Context, memberID uuid.UUID, name string, email string, joinedAt time.Time) (ledger.Member, error)
	GetMember(ctx context.Context, memberID uuid.UUID) (ledger.Member, error)
	RenewMembership(ctx context.Context, memberID uuid.UUID, now time.Time) (ledger.Member, error)
	BorrowBook(ctx context.Context, loan ledger.Loan) error
	ExtendLoan(ctx context.Context, loanID uuid.UUID, now time.Time) (ledger.Loan, error)
	ReturnLoan(ctx context.Context, loanID uuid.UUID, now time.Time) (ledger.Loan, error)
	AdjustLoanCopies(ctx context.Context, loanID uuid.UUID, newCopies int, newDueAt *time.Time) (ledger.Loan, error)
	CancelLoan(ctx context.Context, loanID uuid.UUID) error
	GetLoan(ctx context.Context, loanID uuid.UUID) (ledger.Loan, error)
	LoansByMember(ctx context.Context, memberID uuid.UUID) (ledger.Loans, error)
	ActiveLoans(ctx context.Context) (ledger.Loans, error)
}

// Server wires the command and query handlers to HTTP routes.
type Server struct {
	store   LendingStore
	logger  zerolog.Logger
	clock   func() time.Time
	metrics ledger.MetricsCollector

	addBookHandler         addbook.CommandHandler
	setBookCopiesHandler   setbookcopies.CommandHandler
	registerMemberHandler  registermember.CommandHandler
	renewMembershipHandler renewmembership.CommandHandler
	borrowBookHandler      borrowbook.CommandHandler
	extendLoanHandler      extendloan.CommandHandler
	returnBookHandler      returnbook.CommandHandler
	adjustCopiesHandler    adjustloancopies.CommandHandler
	cancelLoanHandler      cancelloan.CommandHandler
	lateLoansHandler       lateloans.QueryHandler
	memberLoansHandler     memberloans.QueryHandler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithClock replaces the server's time source, used by tests.
func WithClock(clock func() time.Time) ServerOption {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithMetricsCollector attaches a collector for command-handler retry
// metrics, labeled per command type.
func WithMetricsCollector(collector ledger.MetricsCollector) ServerOption {
	return func(s *Server) {
		s.metrics = collector
	}
}

// NewServer creates a Server with handlers wired to the given store.
func NewServer(store LendingStore, logger zerolog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		store:  store,
		logger: logger,
		clock:  time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.addBookHandler = addbook.NewCommandHandler(store, addbook.WithMetrics(s.metrics))
	s.setBookCopiesHandler = setbookcopies.NewCommandHandler(store, setbookcopies.WithMetrics(s.metrics))
	s.registerMemberHandler = registermember.NewCommandHandler(store, registermember.WithMetrics(s.metrics))
	s.renewMembershipHandler = renewmembership.NewCommandHandler(store, renewmembership.WithMetrics(s.metrics))
	s.borrowBookHandler = borrowbook.NewCommandHandler(store, borrowbook.WithMetrics(s.metrics))
	s.extendLoanHandler = extendloan.NewCommandHandler(store, extendloan.WithMetrics(s.metrics))
	s.returnBookHandler = returnbook.NewCommandHandler(store, returnbook.WithMetrics(s.metrics))
	s.adjustCopiesHandler = adjustloancopies.NewCommandHandler(store, adjustloancopies.WithMetrics(s.metrics))
	s.cancelLoanHandler = cancelloan.NewCommandHandler(store, cancelloan.WithMetrics(s.metrics))
	s.lateLoansHandler = lateloans.NewQueryHandler(store)
	s.memberLoansHandler = memberloans.NewQueryHandler(store)

	return s
}

// Handler returns the routed handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/books", s.handleAddBook)
	mux.HandleFunc("GET /api/books/{id}", s.handleGetBook)
	mux.HandleFunc("PUT /api/books/{id}/copies", s.handleSetBookCopies)

	mux.HandleFunc("POST /api/members", s.handleRegisterMember)
	mux.HandleFunc("GET /api/members/{id}", s.handleGetMember)
	mux.HandleFunc("POST /api/members/{id}/renew", s.handleRenewMembership)
	mux.HandleFunc("GET /api/members/{id}/loans", s.handleMemberLoans)

	mux.HandleFunc("POST /api/loans", s.handleBorrowBook)
	mux.HandleFunc("GET /api/loans/late", s.handleLateLoans)
	mux.HandleFunc("GET /api/loans/{id}", s.handleGetLoan)
	mux.HandleFunc("PUT /api/loans/{id}/extend", s.handleExtendLoan)
	mux.HandleFunc("PUT /api/loans/{id}/return", s.handleReturnBook)
	mux.HandleFunc("PUT /api/loans/{id}", s.handleAdjustLoanCopies)
	mux.HandleFunc("DELETE /api/loans/{id}", s.handleCancelLoan)

	return cors.Default().Handler(s.withRequestLog(mux))
}

func (s *Server) withRequestLog(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

// pathID parses the {id} path segment as a UUID.
func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("id"))
}

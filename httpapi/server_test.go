package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendkit/lending-ledger-go/features/query/lateloans"
	"github.com/lendkit/lending-ledger-go/ledger"
	"github.com/lendkit/lending-ledger-go/ledger/memoryengine"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestServer(t *testing.T) (http.Handler, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)}
	store := memoryengine.NewLendingStore()
	server := NewServer(store, zerolog.Nop(), WithClock(clock.Now))

	return server.Handler(), clock
}

func doRequest(t *testing.T, handler http.Handler, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}

	req := httptest.NewRequest(method, path, &reqBody)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))

	return out
}

func givenBook(t *testing.T, handler http.Handler, totalCopies int) ledger.Book {
	t.Helper()

	rec := doRequest(t, handler, http.MethodPost, "/api/books", addBookRequest{
		Title:       "A Wizard of Earthsea",
		Authors:     []string{"Ursula K. Le Guin"},
		Tags:        []string{"fantasy"},
		TotalCopies: totalCopies,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	return decodeBody[ledger.Book](t, rec)
}

func givenMember(t *testing.T, handler http.Handler) ledger.Member {
	t.Helper()

	rec := doRequest(t, handler, http.MethodPost, "/api/members", registerMemberRequest{
		Name:  "Ada Lovelace",
		Email: "ada@example.org",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	return decodeBody[ledger.Member](t, rec)
}

func givenLoan(t *testing.T, handler http.Handler, book ledger.Book, member ledger.Member, copies int) ledger.Loan {
	t.Helper()

	rec := doRequest(t, handler, http.MethodPost, "/api/loans", borrowBookRequest{
		BookID:   book.ID,
		MemberID: member.ID,
		Copies:   copies,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	return decodeBody[ledger.Loan](t, rec)
}

func Test_API_BorrowExtendReturnLifecycle(t *testing.T) {
	// arrange
	handler, clock := newTestServer(t)
	book := givenBook(t, handler, 3)
	member := givenMember(t, handler)

	// act - borrow two copies
	loan := givenLoan(t, handler, book, member, 2)
	assert.Equal(t, book.ID, loan.BookID)
	assert.True(t, loan.DueAt.Equal(clock.Now().Add(ledger.LoanPeriod)))

	// assert - availability dropped
	rec := doRequest(t, handler, http.MethodGet, "/api/books/"+book.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[ledger.Book](t, rec).AvailableCopies)

	// act - extend moves the due date out from now
	clock.Advance(5 * 24 * time.Hour)
	rec = doRequest(t, handler, http.MethodPut, "/api/loans/"+loan.ID.String()+"/extend", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	extended := decodeBody[ledger.Loan](t, rec)
	assert.Equal(t, 1, extended.ExtensionCount)
	assert.True(t, extended.DueAt.Equal(clock.Now().Add(ledger.LoanPeriod)))

	// act - return credits the copies back
	rec = doRequest(t, handler, http.MethodPut, "/api/loans/"+loan.ID.String()+"/return", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	closed := decodeBody[ledger.Loan](t, rec)
	assert.NotNil(t, closed.ReturnedAt)

	rec = doRequest(t, handler, http.MethodGet, "/api/books/"+book.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeBody[ledger.Book](t, rec).AvailableCopies)
}

func Test_API_ReturnTwice_Conflicts(t *testing.T) {
	handler, _ := newTestServer(t)
	book := givenBook(t, handler, 1)
	member := givenMember(t, handler)
	loan := givenLoan(t, handler, book, member, 1)

	rec := doRequest(t, handler, http.MethodPut, "/api/loans/"+loan.ID.String()+"/return", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodPut, "/api/loans/"+loan.ID.String()+"/return", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func Test_API_Borrow_InsufficientInventory(t *testing.T) {
	handler, _ := newTestServer(t)
	book := givenBook(t, handler, 1)
	member := givenMember(t, handler)
	givenLoan(t, handler, book, member, 1)

	rec := doRequest(t, handler, http.MethodPost, "/api/loans", borrowBookRequest{
		BookID:   book.ID,
		MemberID: member.ID,
		Copies:   1,
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func Test_API_Borrow_ExpiredMembership_Forbidden(t *testing.T) {
	// arrange - the membership lapses before the borrow attempt
	handler, clock := newTestServer(t)
	book := givenBook(t, handler, 1)
	member := givenMember(t, handler)
	clock.Advance(366 * 24 * time.Hour)

	// act
	rec := doRequest(t, handler, http.MethodPost, "/api/loans", borrowBookRequest{
		BookID:   book.ID,
		MemberID: member.ID,
		Copies:   1,
	})

	// assert
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// act - renewal restores eligibility
	rec = doRequest(t, handler, http.MethodPost, "/api/members/"+member.ID.String()+"/renew", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/api/loans", borrowBookRequest{
		BookID:   book.ID,
		MemberID: member.ID,
		Copies:   1,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func Test_API_AdjustLoanCopies(t *testing.T) {
	handler, _ := newTestServer(t)
	book := givenBook(t, handler, 3)
	member := givenMember(t, handler)
	loan := givenLoan(t, handler, book, member, 1)

	// act - grow within the available copies
	rec := doRequest(t, handler, http.MethodPut, "/api/loans/"+loan.ID.String(), adjustLoanRequest{Copies: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeBody[ledger.Loan](t, rec).Copies)

	// act - growing past the total conflicts
	rec = doRequest(t, handler, http.MethodPut, "/api/loans/"+loan.ID.String(), adjustLoanRequest{Copies: 4})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func Test_API_CancelLoan(t *testing.T) {
	handler, _ := newTestServer(t)
	book := givenBook(t, handler, 2)
	member := givenMember(t, handler)
	loan := givenLoan(t, handler, book, member, 2)

	rec := doRequest(t, handler, http.MethodDelete, "/api/loans/"+loan.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/loans/"+loan.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/books/"+book.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decodeBody[ledger.Book](t, rec).AvailableCopies)
}

func Test_API_LateLoans(t *testing.T) {
	// arrange
	handler, clock := newTestServer(t)
	book := givenBook(t, handler, 2)
	member := givenMember(t, handler)
	loan := givenLoan(t, handler, book, member, 1)

	// act - nothing is late yet
	rec := doRequest(t, handler, http.MethodGet, "/api/loans/late", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeBody[lateloans.LateLoansResult](t, rec).Count)

	// act - pass the due date
	clock.Advance(ledger.LoanPeriod + time.Hour)
	rec = doRequest(t, handler, http.MethodGet, "/api/loans/late", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, loan.ID.String())
	assert.Contains(t, body, `"count":1`)
}

func Test_API_MemberLoans(t *testing.T) {
	handler, _ := newTestServer(t)
	book := givenBook(t, handler, 2)
	member := givenMember(t, handler)
	givenLoan(t, handler, book, member, 1)

	rec := doRequest(t, handler, http.MethodGet, "/api/members/"+member.ID.String()+"/loans", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, member.CardNumber)
	assert.Contains(t, body, `"eligible":true`)
	assert.Contains(t, body, `"activeBookCount":1`)
}

func Test_API_BadRequests(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/loans/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/api/books", addBookRequest{Title: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/api/members", registerMemberRequest{Name: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_API_NotFound(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/loans/7f7ad5a6-3c13-4c0e-8f00-aaaaaaaaaaaa", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/books/7f7ad5a6-3c13-4c0e-8f00-aaaaaaaaaaaa", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/lendkit/lending-ledger-go/ledger"
)

const (
	operationRegisterMember       = "register_member"
	operationGetMember            = "get_member"
	operationRenewMembership      = "renew_membership"
	operationCountActiveBookLoans = "count_active_book_loans"
)

// RegisterMember creates a member record, assigning the next card number for
// the joining year inside the same transaction that inserts the row.
func (s LendingStore) RegisterMember(
	ctx context.Context,
	memberID uuid.UUID,
	name string,
	email string,
	joinedAt time.Time,
) (ledger.Member, error) {

	ctx, finish := s.startObservation(ctx, operationRegisterMember)
	member, err := s.registerMember(ctx, memberID, name, email, joinedAt)
	finish(err)

	return member, err
}

func (s LendingStore) registerMember(
	ctx context.Context,
	memberID uuid.UUID,
	name string,
	email string,
	joinedAt time.Time,
) (ledger.Member, error) {

	joined := ledger.ToTimestamp(joinedAt)

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return ledger.Member{}, mapConcurrencyError(err)
	}
	defer s.rollbackTx(ctx, tx)

	sequence, err := s.nextCardSequence(ctx, tx, joined)
	if err != nil {
		return ledger.Member{}, err
	}

	member := ledger.BuildMember(memberID, name, email, sequence, joined)

	insertStmt := s.builder().
		Insert(s.membersTable).
		Cols(memberColumns()...).
		Vals(goqu.Vals{
			member.ID.String(),
			member.Name,
			member.Email,
			member.CardNumber,
			member.FirstJoinedAt,
			member.RenewedAt,
			member.MembershipValidTo,
		})

	sqlQuery, err := s.toSQL(ctx, insertStmt)
	if err != nil {
		return ledger.Member{}, err
	}

	if _, err = s.executeStatement(ctx, tx, sqlQuery); err != nil {
		return ledger.Member{}, mapCardNumberConflict(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return ledger.Member{}, mapCardNumberConflict(mapConcurrencyError(err))
	}

	return member, nil
}

// mapCardNumberConflict translates a unique violation on the insert into the
// retryable ledger.ErrConcurrencyConflict. Two concurrent registrations in
// the same year can count the same member set and build the same card number;
// the retried attempt recounts against the committed winner and picks the
// next sequence.
func mapCardNumberConflict(err error) error {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) && pgxErr.Code == pgCodeUniqueViolation {
		return errors.Join(ledger.ErrConcurrencyConflict, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgCodeUniqueViolation {
		return errors.Join(ledger.ErrConcurrencyConflict, err)
	}

	return err
}

// nextCardSequence counts the members who joined in the same calendar year
// and hands out the next per-year sequence number.
func (s LendingStore) nextCardSequence(ctx context.Context, runner queryRunner, joined time.Time) (int, error) {
	yearStart := time.Date(joined.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	nextYearStart := yearStart.AddDate(1, 0, 0)

	countStmt := s.builder().
		From(s.membersTable).
		Select(goqu.COUNT(goqu.Star())).
		Where(
			goqu.C(colFirstJoinedAt).Gte(yearStart),
			goqu.C(colFirstJoinedAt).Lt(nextYearStart),
		)

	sqlQuery, err := s.toSQL(ctx, countStmt)
	if err != nil {
		return 0, err
	}

	rows, err := s.executeQuery(ctx, runner, sqlQuery)
	if err != nil {
		return 0, err
	}
	defer s.closeRows(ctx, rows)

	count := 0
	if rows.Next() {
		if err = rows.Scan(&count); err != nil {
			return 0, err
		}
	}

	return count + 1, nil
}

// GetMember loads a member record by id, failing with
// ledger.ErrMemberNotFound when it does not exist.
func (s LendingStore) GetMember(ctx context.Context, memberID uuid.UUID) (ledger.Member, error) {
	ctx, finish := s.startObservation(ctx, operationGetMember)
	member, err := s.getMember(ctx, s.db, memberID, false)
	finish(err)

	return member, err
}

func (s LendingStore) getMember(
	ctx context.Context,
	runner queryRunner,
	memberID uuid.UUID,
	forUpdate bool,
) (ledger.Member, error) {

	selectStmt := s.builder().
		From(s.membersTable).
		Select(memberColumns()...).
		Where(goqu.C(colMemberID).Eq(memberID.String()))

	if forUpdate {
		selectStmt = selectStmt.ForUpdate(exp.Wait)
	}

	sqlQuery, err := s.toSQL(ctx, selectStmt)
	if err != nil {
		return ledger.Member{}, err
	}

	rows, err := s.executeQuery(ctx, runner, sqlQuery)
	if err != nil {
		return ledger.Member{}, err
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return ledger.Member{}, ledger.ErrMemberNotFound
	}

	return scanMember(rows)
}

// RenewMembership extends a member's validity by one year from the renewal
// time.
func (s LendingStore) RenewMembership(ctx context.Context, memberID uuid.UUID, now time.Time) (ledger.Member, error) {
	ctx, finish := s.startObservation(ctx, operationRenewMembership)
	member, err := s.renewMembership(ctx, memberID, now)
	finish(err)

	return member, err
}

func (s LendingStore) renewMembership(ctx context.Context, memberID uuid.UUID, now time.Time) (ledger.Member, error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return ledger.Member{}, mapConcurrencyError(err)
	}
	defer s.rollbackTx(ctx, tx)

	member, err := s.getMember(ctx, tx, memberID, true)
	if err != nil {
		return ledger.Member{}, err
	}

	renewed := member.Renew(now)

	updateStmt := s.builder().
		Update(s.membersTable).
		Set(goqu.Record{
			colRenewedAt:         renewed.RenewedAt,
			colMembershipValidTo: renewed.MembershipValidTo,
		}).
		Where(goqu.C(colMemberID).Eq(memberID.String()))

	sqlQuery, err := s.toSQL(ctx, updateStmt)
	if err != nil {
		return ledger.Member{}, err
	}

	if _, err = s.executeStatement(ctx, tx, sqlQuery); err != nil {
		return ledger.Member{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return ledger.Member{}, mapConcurrencyError(err)
	}

	return renewed, nil
}

// CountActiveBookLoans reports how many distinct books a member currently has
// on loan.
func (s LendingStore) CountActiveBookLoans(ctx context.Context, memberID uuid.UUID) (int, error) {
	ctx, finish := s.startObservation(ctx, operationCountActiveBookLoans)
	count, err := s.countActiveBookLoans(ctx, s.db, memberID)
	finish(err)

	return count, err
}

func (s LendingStore) countActiveBookLoans(ctx context.Context, runner queryRunner, memberID uuid.UUID) (int, error) {
	countStmt := s.builder().
		From(s.loansTable).
		Select(goqu.COUNT(goqu.DISTINCT(colBookID))).
		Where(
			goqu.C(colMemberID).Eq(memberID.String()),
			goqu.C(colReturnedAt).IsNull(),
		)

	sqlQuery, err := s.toSQL(ctx, countStmt)
	if err != nil {
		return 0, err
	}

	rows, err := s.executeQuery(ctx, runner, sqlQuery)
	if err != nil {
		return 0, err
	}
	defer s.closeRows(ctx, rows)

	count := 0
	if rows.Next() {
		if err = rows.Scan(&count); err != nil {
			return 0, err
		}
	}

	return count, nil
}

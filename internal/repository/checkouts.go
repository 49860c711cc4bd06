package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-manager/internal/errs"
	"github.com/Astemirdum/library-manager/internal/model"
)

var checkoutColumns = []string{
	"id", "checkout_uid", "book_id", "user_id",
	"checked_at", "due_date", "returned", "returned_at", "overdue", "created_at",
}

var checkoutSortCols = map[string]string{
	"date": "c.created_at",
	"due":  "c.due_date",
}

// aliasColumns shapes joined columns as `b.id as "book.id"` so sqlx can scan
// them into the nested relation struct.
func aliasColumns(table, as string, cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		out = append(out, fmt.Sprintf(`%s.%s as "%s.%s"`, table, col, as, col))
	}
	return out
}

func checkoutJoinColumns(withUser bool) []string {
	cols := make([]string, 0, len(checkoutColumns)+len(bookColumns)+len(userColumns))
	for _, col := range checkoutColumns {
		cols = append(cols, "c."+col)
	}
	cols = append(cols, aliasColumns("b", "book", bookColumns)...)
	if withUser {
		cols = append(cols, aliasColumns("u", "user", userColumns)...)
	}
	return cols
}

func (r *Repository) ListCheckouts(ctx context.Context, filter model.CheckoutFilter, page model.PageQuery) (model.CheckoutList, error) {
	base := qb.Select(checkoutJoinColumns(true)...).
		From(checkoutsTableName + " c").
		Join(booksTableName + " b on b.id = c.book_id").
		Join(usersTableName + " u on u.id = c.user_id")
	countQ := qb.Select("count(*)").From(checkoutsTableName + " c")

	if filter.Overdue {
		cond := sq.Eq{"c.overdue": true}
		base = base.Where(cond)
		countQ = countQ.Where(cond)
	}

	items, meta, err := queryPage[model.CheckoutDetail](ctx, r.db, base, countQ, page, checkoutSortCols, "c.id asc")
	if err != nil {
		return model.CheckoutList{}, err
	}
	return model.CheckoutList{Meta: meta, Items: items}, nil
}

func (r *Repository) ListUserCheckouts(ctx context.Context, userID int64, page model.PageQuery) (model.UserCheckoutList, error) {
	cond := sq.Eq{"c.user_id": userID}
	base := qb.Select(checkoutJoinColumns(false)...).
		From(checkoutsTableName + " c").
		Join(booksTableName + " b on b.id = c.book_id").
		Where(cond)
	countQ := qb.Select("count(*)").From(checkoutsTableName + " c").Where(cond)

	items, meta, err := queryPage[model.UserCheckout](ctx, r.db, base, countQ, page, checkoutSortCols, "c.id asc")
	if err != nil {
		return model.UserCheckoutList{}, err
	}
	return model.UserCheckoutList{Meta: meta, Items: items}, nil
}

func (r *Repository) ListBorrowedByUser(ctx context.Context, userID int64) ([]model.UserCheckout, error) {
	query, args, err := qb.Select(checkoutJoinColumns(false)...).
		From(checkoutsTableName + " c").
		Join(booksTableName + " b on b.id = c.book_id").
		Where(sq.Eq{"c.user_id": userID, "c.returned": false}).
		OrderBy("c.id asc").
		ToSql()
	if err != nil {
		return nil, err
	}

	items := make([]model.UserCheckout, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) ListActiveByUser(ctx context.Context, userID int64) ([]model.Checkout, error) {
	query, args, err := qb.Select(checkoutColumns...).
		From(checkoutsTableName).
		Where(sq.Eq{"user_id": userID, "returned": false}).
		OrderBy("id asc").
		ToSql()
	if err != nil {
		return nil, err
	}

	items := make([]model.Checkout, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) ListByBook(ctx context.Context, bookID int64) ([]model.Checkout, error) {
	query, args, err := qb.Select(checkoutColumns...).
		From(checkoutsTableName).
		Where(sq.Eq{"book_id": bookID}).
		OrderBy("id asc").
		ToSql()
	if err != nil {
		return nil, err
	}

	items := make([]model.Checkout, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) CountByBook(ctx context.Context, bookID int64) (int, error) {
	return r.countCheckouts(ctx, sq.Eq{"book_id": bookID})
}

func (r *Repository) CountByUser(ctx context.Context, userID int64) (int, error) {
	return r.countCheckouts(ctx, sq.Eq{"user_id": userID})
}

func (r *Repository) countCheckouts(ctx context.Context, cond sq.Sqlizer) (int, error) {
	query, args, err := qb.Select("count(*)").
		From(checkoutsTableName).
		Where(cond).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) CreateCheckout(ctx context.Context, userID, bookID int64, due time.Time) (model.Checkout, error) {
	query, args, err := qb.Insert(checkoutsTableName).
		Columns("checkout_uid", "book_id", "user_id", "due_date").
		Values(uuid.New(), bookID, userID, due).
		Suffix("returning " + strings.Join(checkoutColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Checkout{}, err
	}

	var co model.Checkout
	if err := r.db.GetContext(ctx, &co, query, args...); err != nil {
		r.log.Error("CreateCheckout", zap.String("q", query), zap.Any("args", args))
		return model.Checkout{}, err
	}
	return co, nil
}

func (r *Repository) RenewCheckout(ctx context.Context, id int64, due time.Time) (model.Checkout, error) {
	query, args, err := qb.Update(checkoutsTableName).
		Set("checked_at", sq.Expr("now()")).
		Set("due_date", due).
		Where(sq.Eq{"id": id, "returned": false}).
		Suffix("returning " + strings.Join(checkoutColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Checkout{}, err
	}

	var co model.Checkout
	if err := r.db.GetContext(ctx, &co, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Checkout{}, errs.ErrNotFound
		}
		return model.Checkout{}, err
	}
	return co, nil
}

func (r *Repository) GetUserCheckout(ctx context.Context, userID, checkoutID int64) (model.Checkout, error) {
	query, args, err := qb.Select(checkoutColumns...).
		From(checkoutsTableName).
		Where(sq.Eq{"id": checkoutID, "user_id": userID}).
		ToSql()
	if err != nil {
		return model.Checkout{}, err
	}

	var co model.Checkout
	if err := r.db.GetContext(ctx, &co, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Checkout{}, errs.ErrNotFound
		}
		return model.Checkout{}, err
	}
	return co, nil
}

func (r *Repository) ReturnCheckout(ctx context.Context, id int64) (model.Checkout, error) {
	query, args, err := qb.Update(checkoutsTableName).
		Set("returned", true).
		Set("returned_at", sq.Expr("now()")).
		Set("overdue", false).
		Where(sq.Eq{"id": id}).
		Suffix("returning " + strings.Join(checkoutColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Checkout{}, err
	}

	var co model.Checkout
	if err := r.db.GetContext(ctx, &co, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Checkout{}, errs.ErrNotFound
		}
		return model.Checkout{}, err
	}
	return co, nil
}

// MarkOverdue flips the overdue flag on every non-returned checkout whose due
// date has passed. Re-running is a no-op once all qualifying rows are marked.
func (r *Repository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := qb.Update(checkoutsTableName).
		Set("overdue", true).
		Where(sq.Eq{"returned": false, "overdue": false}).
		Where(sq.Lt{"due_date": now}).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

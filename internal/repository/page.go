package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/Astemirdum/library-manager/internal/model"
)

// queryPage runs the count and the page select against the same predicate:
// base and countQ must carry identical where clauses. Sort fields are mapped
// through the sortCols whitelist; unknown fields fall back to defaultOrder so
// pages stay deterministic.
func queryPage[T any](
	ctx context.Context,
	db *sqlx.DB,
	base sq.SelectBuilder,
	countQ sq.SelectBuilder,
	page model.PageQuery,
	sortCols map[string]string,
	defaultOrder string,
) ([]T, model.PageMeta, error) {
	page = page.Normalize()

	query, args, err := countQ.ToSql()
	if err != nil {
		return nil, model.PageMeta{}, err
	}
	var count int
	if err := db.GetContext(ctx, &count, query, args...); err != nil {
		return nil, model.PageMeta{}, err
	}

	if col, ok := sortCols[page.Sort]; ok && page.Sort != "" {
		base = base.OrderBy(col + " " + string(page.Order))
	} else {
		base = base.OrderBy(defaultOrder)
	}
	base = base.Limit(uint64(page.Limit)).Offset(uint64(page.Offset()))

	query, args, err = base.ToSql()
	if err != nil {
		return nil, model.PageMeta{}, err
	}
	items := make([]T, 0, page.Limit)
	if err := db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, model.PageMeta{}, err
	}

	return items, model.NewPageMeta(page.Limit, page.Page, count), nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-manager/internal/errs"
	"github.com/Astemirdum/library-manager/internal/model"
)

var bookColumns = []string{"id", "title", "author", "isbn", "quantity", "location", "is_deleted", "created_at"}

var bookSortCols = map[string]string{
	"date":   "created_at",
	"title":  "title",
	"author": "author",
}

func (r *Repository) ListBooks(ctx context.Context, filter model.BookFilter, page model.PageQuery) (model.BookList, error) {
	conds := []sq.Sqlizer{sq.Eq{"is_deleted": false}}
	if filter.Title != "" {
		conds = append(conds, sq.ILike{"title": fmt.Sprint("%", filter.Title, "%")})
	}
	if filter.Author != "" {
		conds = append(conds, sq.ILike{"author": fmt.Sprint("%", filter.Author, "%")})
	}
	if filter.ISBN != "" {
		conds = append(conds, sq.Eq{"isbn": filter.ISBN})
	}

	base := qb.Select(bookColumns...).From(booksTableName)
	countQ := qb.Select("count(*)").From(booksTableName)
	for _, c := range conds {
		base = base.Where(c)
		countQ = countQ.Where(c)
	}

	items, meta, err := queryPage[model.Book](ctx, r.db, base, countQ, page, bookSortCols, "id asc")
	if err != nil {
		return model.BookList{}, err
	}
	return model.BookList{Meta: meta, Items: items}, nil
}

func (r *Repository) GetBook(ctx context.Context, id int64) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *Repository) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns("title", "author", "isbn", "quantity", "location").
		Values(req.Title, req.Author, req.ISBN, req.Quantity, req.Location).
		Suffix("returning " + strings.Join(bookColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if isUniqueViolation(err) {
			return model.Book{}, errs.ErrLocationUsed
		}
		r.log.Error("CreateBook", zap.String("q", query), zap.Any("args", args))
		return model.Book{}, err
	}
	return book, nil
}

func (r *Repository) UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error) {
	upd := qb.Update(booksTableName).
		Where(sq.Eq{"id": id, "is_deleted": false}).
		Suffix("returning " + strings.Join(bookColumns, ", "))
	if req.Quantity != nil {
		upd = upd.Set("quantity", *req.Quantity)
	}
	if req.Location != nil {
		upd = upd.Set("location", *req.Location)
	}

	query, args, err := upd.ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		if isUniqueViolation(err) {
			return model.Book{}, errs.ErrLocationUsed
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *Repository) SoftDeleteBook(ctx context.Context, id int64) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		Set("is_deleted", true).
		Where(sq.Eq{"id": id}).
		Suffix("returning " + strings.Join(bookColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *Repository) HardDeleteBook(ctx context.Context, id int64) (model.Book, error) {
	query, args, err := qb.Delete(booksTableName).
		Where(sq.Eq{"id": id}).
		Suffix("returning " + strings.Join(bookColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-manager/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type BookRepository interface {
	ListBooks(ctx context.Context, filter model.BookFilter, page model.PageQuery) (model.BookList, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error)
	SoftDeleteBook(ctx context.Context, id int64) (model.Book, error)
	HardDeleteBook(ctx context.Context, id int64) (model.Book, error)
}

type UserRepository interface {
	ListUsers(ctx context.Context, filter model.UserFilter, page model.PageQuery) (model.UserList, error)
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	UpdateUser(ctx context.Context, id int64, req model.UpdateUserRequest) (model.User, error)
	PromoteAdmin(ctx context.Context, id int64) (model.User, error)
	SoftDeleteUser(ctx context.Context, id int64) (model.User, error)
	HardDeleteUser(ctx context.Context, id int64) (model.User, error)
}

type CheckoutRepository interface {
	ListCheckouts(ctx context.Context, filter model.CheckoutFilter, page model.PageQuery) (model.CheckoutList, error)
	ListUserCheckouts(ctx context.Context, userID int64, page model.PageQuery) (model.UserCheckoutList, error)
	ListBorrowedByUser(ctx context.Context, userID int64) ([]model.UserCheckout, error)
	ListActiveByUser(ctx context.Context, userID int64) ([]model.Checkout, error)
	ListByBook(ctx context.Context, bookID int64) ([]model.Checkout, error)
	CountByBook(ctx context.Context, bookID int64) (int, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	CreateCheckout(ctx context.Context, userID, bookID int64, due time.Time) (model.Checkout, error)
	RenewCheckout(ctx context.Context, id int64, due time.Time) (model.Checkout, error)
	GetUserCheckout(ctx context.Context, userID, checkoutID int64) (model.Checkout, error)
	ReturnCheckout(ctx context.Context, id int64) (model.Checkout, error)
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

type Repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

var (
	_ BookRepository     = (*Repository)(nil)
	_ UserRepository     = (*Repository)(nil)
	_ CheckoutRepository = (*Repository)(nil)
)

func NewRepository(db *sqlx.DB, log *zap.Logger) (*Repository, error) {
	return &Repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	usersTableName     = `users`
	booksTableName     = `books`
	checkoutsTableName = `checkouts`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

package handler

import (
	"context"

	"github.com/Astemirdum/library-manager/internal/model"
	"github.com/Astemirdum/library-manager/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type CatalogService interface {
	ListBooks(ctx context.Context, filter model.BookFilter, page model.PageQuery) (model.BookList, error)
	GetBook(ctx context.Context, id int64) (model.BookDetail, error)
	AddBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id int64) (model.Book, error)
}

type UserService interface {
	ListUsers(ctx context.Context, filter model.UserFilter, page model.PageQuery) (model.UserList, error)
	GetUser(ctx context.Context, id int64) (model.UserDetail, error)
	Register(ctx context.Context, req model.RegisterRequest) (model.User, error)
	Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error)
	PromoteAdmin(ctx context.Context, id int64) (model.User, error)
	UpdateUser(ctx context.Context, id int64, req model.UpdateUserRequest) (model.User, error)
	DeleteUser(ctx context.Context, id int64) (model.User, error)
}

type CheckoutService interface {
	CheckoutBook(ctx context.Context, userID, bookID int64) (model.Checkout, error)
	ReturnBook(ctx context.Context, userID, checkoutID int64) (model.Checkout, error)
	ListCheckouts(ctx context.Context, filter model.CheckoutFilter, page model.PageQuery) (model.CheckoutList, error)
	ListUserCheckouts(ctx context.Context, userID int64, page model.PageQuery) (model.UserCheckoutList, error)
}

var (
	_ CatalogService  = (*service.CatalogService)(nil)
	_ UserService     = (*service.UserService)(nil)
	_ CheckoutService = (*service.CheckoutService)(nil)
)

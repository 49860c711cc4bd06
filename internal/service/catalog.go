package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Astemirdum/library-manager/internal/errs"
	"github.com/Astemirdum/library-manager/internal/model"
	"github.com/Astemirdum/library-manager/internal/repository"
)

type CatalogService struct {
	repo      repository.BookRepository
	checkouts repository.CheckoutRepository
	log       *zap.Logger
}

func NewCatalogService(repo repository.BookRepository, checkouts repository.CheckoutRepository, log *zap.Logger) *CatalogService {
	return &CatalogService{
		repo:      repo,
		checkouts: checkouts,
		log:       log.Named("catalog"),
	}
}

func (s *CatalogService) ListBooks(ctx context.Context, filter model.BookFilter, page model.PageQuery) (model.BookList, error) {
	return s.repo.ListBooks(ctx, filter, page)
}

func (s *CatalogService) GetBook(ctx context.Context, id int64) (model.BookDetail, error) {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return model.BookDetail{}, err
	}
	history, err := s.checkouts.ListByBook(ctx, id)
	if err != nil {
		return model.BookDetail{}, err
	}
	return model.BookDetail{Book: book, Checkouts: history}, nil
}

func (s *CatalogService) AddBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	return s.repo.CreateBook(ctx, req)
}

func (s *CatalogService) UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error) {
	if req.Quantity == nil && req.Location == nil {
		book, err := s.repo.GetBook(ctx, id)
		if err != nil {
			return model.Book{}, err
		}
		if book.IsDeleted {
			return model.Book{}, errs.ErrNotFound
		}
		return book, nil
	}
	return s.repo.UpdateBook(ctx, id, req)
}

// DeleteBook removes a book. A book with checkout history is only marked
// deleted so historical checkouts keep their reference.
func (s *CatalogService) DeleteBook(ctx context.Context, id int64) (model.Book, error) {
	if _, err := s.repo.GetBook(ctx, id); err != nil {
		return model.Book{}, err
	}

	history, err := s.checkouts.CountByBook(ctx, id)
	if err != nil {
		return model.Book{}, err
	}
	if history > 0 {
		return s.repo.SoftDeleteBook(ctx, id)
	}
	return s.repo.HardDeleteBook(ctx, id)
}

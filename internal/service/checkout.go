package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Astemirdum/library-manager/internal/errs"
	"github.com/Astemirdum/library-manager/internal/model"
	"github.com/Astemirdum/library-manager/internal/repository"
	"github.com/Astemirdum/library-manager/pkg/kafka"
)

// maxCheckedOut is the lending cap: how many books a user may hold at once.
const maxCheckedOut = 3

// Publisher pushes checkout lifecycle events onto the event stream.
type Publisher interface {
	Publish(topic string, v any) error
}

type CheckoutService struct {
	repo   repository.CheckoutRepository
	books  repository.BookRepository
	pub    Publisher
	period time.Duration
	log    *zap.Logger
}

func NewCheckoutService(
	repo repository.CheckoutRepository,
	books repository.BookRepository,
	pub Publisher,
	lendingPeriod time.Duration,
	log *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		repo:   repo,
		books:  books,
		pub:    pub,
		period: lendingPeriod,
		log:    log.Named("checkout"),
	}
}

// CheckoutBook borrows a book for a user, or renews an existing checkout of
// the same book. A full lending cap or any overdue checkout blocks borrowing.
// The user's non-returned checkouts are walked in id order: a matching
// non-overdue checkout is renewed before an overdue one can block, any
// overdue checkout encountered first blocks everything.
func (s *CheckoutService) CheckoutBook(ctx context.Context, userID, bookID int64) (model.Checkout, error) {
	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		return model.Checkout{}, err
	}
	if book.IsDeleted {
		return model.Checkout{}, errs.ErrNotFound
	}

	active, err := s.repo.ListActiveByUser(ctx, userID)
	if err != nil {
		return model.Checkout{}, err
	}
	if len(active) >= maxCheckedOut {
		return model.Checkout{}, errs.ErrLendingLimit
	}

	for _, co := range active {
		if co.BookID == bookID && !co.Overdue {
			renewed, err := s.repo.RenewCheckout(ctx, co.ID, time.Now().Add(s.period))
			if err != nil {
				return model.Checkout{}, err
			}
			s.publish(model.CheckoutEvent{
				Type:        model.EventRenewed,
				CheckoutUid: renewed.CheckoutUid,
				BookID:      renewed.BookID,
				UserID:      renewed.UserID,
				At:          time.Now(),
			})
			return renewed, nil
		}
		if co.Overdue {
			return model.Checkout{}, errs.ErrOverdueBook
		}
	}

	created, err := s.repo.CreateCheckout(ctx, userID, bookID, time.Now().Add(s.period))
	if err != nil {
		return model.Checkout{}, err
	}
	s.publish(model.CheckoutEvent{
		Type:        model.EventCheckedOut,
		CheckoutUid: created.CheckoutUid,
		BookID:      created.BookID,
		UserID:      created.UserID,
		At:          time.Now(),
	})
	return created, nil
}

// ReturnBook closes a checkout owned by the user. Returning twice fails.
func (s *CheckoutService) ReturnBook(ctx context.Context, userID, checkoutID int64) (model.Checkout, error) {
	co, err := s.repo.GetUserCheckout(ctx, userID, checkoutID)
	if err != nil {
		return model.Checkout{}, err
	}
	if co.Returned {
		return model.Checkout{}, errs.ErrAlreadyReturned
	}

	returned, err := s.repo.ReturnCheckout(ctx, co.ID)
	if err != nil {
		return model.Checkout{}, err
	}
	s.publish(model.CheckoutEvent{
		Type:        model.EventReturned,
		CheckoutUid: returned.CheckoutUid,
		BookID:      returned.BookID,
		UserID:      returned.UserID,
		At:          time.Now(),
	})
	return returned, nil
}

// MarkOverdueBooks is the periodic sweep transition Active -> Overdue.
func (s *CheckoutService) MarkOverdueBooks(ctx context.Context) (int64, error) {
	marked, err := s.repo.MarkOverdue(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if marked > 0 {
		s.publish(model.CheckoutEvent{
			Type:   model.EventOverdueSweep,
			Marked: marked,
			At:     time.Now(),
		})
	}
	return marked, nil
}

func (s *CheckoutService) ListCheckouts(ctx context.Context, filter model.CheckoutFilter, page model.PageQuery) (model.CheckoutList, error) {
	return s.repo.ListCheckouts(ctx, filter, page)
}

func (s *CheckoutService) ListUserCheckouts(ctx context.Context, userID int64, page model.PageQuery) (model.UserCheckoutList, error) {
	return s.repo.ListUserCheckouts(ctx, userID, page)
}

func (s *CheckoutService) publish(event model.CheckoutEvent) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(kafka.CheckoutTopic, event); err != nil {
		s.log.Warn("publish checkout event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

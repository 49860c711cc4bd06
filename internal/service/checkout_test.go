package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-manager/internal/errs"
	"github.com/Astemirdum/library-manager/internal/model"
	mock_repository "github.com/Astemirdum/library-manager/internal/repository/mocks"
)

type capturePublisher struct {
	events []model.CheckoutEvent
}

func (p *capturePublisher) Publish(_ string, v any) error {
	p.events = append(p.events, v.(model.CheckoutEvent))
	return nil
}

func TestCheckoutService_CheckoutBook(t *testing.T) {
	const (
		userID = int64(7)
		bookID = int64(42)
	)
	lendingPeriod := 7 * 24 * time.Hour

	book := model.Book{ID: bookID, Title: "Dune"}

	tests := []struct {
		name      string
		mock      func(repo *mock_repository.MockCheckoutRepository, books *mock_repository.MockBookRepository)
		wantErr   error
		wantEvent model.CheckoutEventType
	}{
		{
			name: "new checkout",
			mock: func(repo *mock_repository.MockCheckoutRepository, books *mock_repository.MockBookRepository) {
				books.EXPECT().GetBook(gomock.Any(), bookID).Return(book, nil)
				repo.EXPECT().ListActiveByUser(gomock.Any(), userID).Return(nil, nil)
				repo.EXPECT().CreateCheckout(gomock.Any(), userID, bookID, gomock.Any()).
					Return(model.Checkout{ID: 1, BookID: bookID, UserID: userID}, nil)
			},
			wantEvent: model.EventCheckedOut,
		},
		{
			name: "book not found",
			mock: func(repo *mock_repository.MockCheckoutRepository, books *mock_repository.MockBookRepository) {
				books.EXPECT().GetBook(gomock.Any(), bookID).Return(model.Book{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name: "deleted book not found",
			mock: func(repo *mock_repository.MockCheckoutRepository, books *mock_repository.MockBookRepository) {
				books.EXPECT().GetBook(gomock.Any(), bookID).
					Return(model.Book{ID: bookID, IsDeleted: true}, nil)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name: "lending cap reached",
			mock: func(repo *mock_repository.MockCheckoutRepository, books *mock_repository.MockBookRepository) {
				books.EXPECT().GetBook(gomock.Any(), bookID).Return(book, nil)
				repo.EXPECT().ListActiveByUser(gomock.Any(), userID).Return([]model.Checkout{
					{ID: 1, BookID: 10}, {ID: 2, BookID: 11}, {ID: 3, BookID: 12},
				}, nil)
			},
			wantErr: errs.ErrLendingLimit,
		},
		{
			name: "renews the same book",
			mock: func(repo *mock_repository.MockCheckoutRepository, books *mock_repository.MockBookRepository) {
				books.EXPECT().GetBook(gomock.Any(), bookID).Return(book, nil)
				repo.EXPECT().ListActiveByUser(gomock.Any(), userID).Return([]model.Checkout{
					{ID: 5, BookID: bookID, UserID: userID},
				}, nil)
				repo.EXPECT().RenewCheckout(gomock.Any(), int64(5), gomock.Any()).
					Return(model.Checkout{ID: 5, BookID: bookID, UserID: userID}, nil)
			},
			wantEvent: model.EventRenewed,
		},
		{
			name: "renewal beats a later overdue checkout",
			mock: func(repo *mock_repository.MockCheckoutRepository, books *mock_repository.MockBookRepository) {
				books.EXPECT().GetBook(gomock.Any(), bookID).Return(book, nil)
				repo.EXPECT().ListActiveByUser(gomock.Any(), userID).Return([]model.Checkout{
					{ID: 5, BookID: bookID, UserID: userID},
					{ID: 6, BookID: 99, UserID: userID, Overdue: true},
				}, nil)
				repo.EXPECT().RenewCheckout(gomock.Any(), int64(5), gomock.Any()).
					Return(model.Checkout{ID: 5, BookID: bookID, UserID: userID}, nil)
			},
			wantEvent: model.EventRenewed,
		},
		{
			name: "overdue book blocks borrowing",
			mock: func(repo *mock_repository.MockCheckoutRepository, books *mock_repository.MockBookRepository) {
				books.EXPECT().GetBook(gomock.Any(), bookID).Return(book, nil)
				repo.EXPECT().ListActiveByUser(gomock.Any(), userID).Return([]model.Checkout{
					{ID: 4, BookID: 99, UserID: userID, Overdue: true},
				}, nil)
			},
			wantErr: errs.ErrOverdueBook,
		},
		{
			name: "overdue copy of the same book blocks",
			mock: func(repo *mock_repository.MockCheckoutRepository, books *mock_repository.MockBookRepository) {
				books.EXPECT().GetBook(gomock.Any(), bookID).Return(book, nil)
				repo.EXPECT().ListActiveByUser(gomock.Any(), userID).Return([]model.Checkout{
					{ID: 4, BookID: bookID, UserID: userID, Overdue: true},
				}, nil)
			},
			wantErr: errs.ErrOverdueBook,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := mock_repository.NewMockCheckoutRepository(ctrl)
			books := mock_repository.NewMockBookRepository(ctrl)
			tt.mock(repo, books)

			pub := &capturePublisher{}
			svc := NewCheckoutService(repo, books, pub, lendingPeriod, zap.NewNop())

			_, err := svc.CheckoutBook(context.Background(), userID, bookID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, pub.events)
				return
			}
			require.NoError(t, err)
			require.Len(t, pub.events, 1)
			require.Equal(t, tt.wantEvent, pub.events[0].Type)
		})
	}
}

func TestCheckoutService_ReturnBook(t *testing.T) {
	const (
		userID     = int64(7)
		checkoutID = int64(5)
	)

	tests := []struct {
		name    string
		mock    func(repo *mock_repository.MockCheckoutRepository)
		wantErr error
	}{
		{
			name: "ok",
			mock: func(repo *mock_repository.MockCheckoutRepository) {
				repo.EXPECT().GetUserCheckout(gomock.Any(), userID, checkoutID).
					Return(model.Checkout{ID: checkoutID, UserID: userID}, nil)
				repo.EXPECT().ReturnCheckout(gomock.Any(), checkoutID).
					Return(model.Checkout{ID: checkoutID, UserID: userID, Returned: true}, nil)
			},
		},
		{
			name: "someone else's checkout",
			mock: func(repo *mock_repository.MockCheckoutRepository) {
				repo.EXPECT().GetUserCheckout(gomock.Any(), userID, checkoutID).
					Return(model.Checkout{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name: "already returned",
			mock: func(repo *mock_repository.MockCheckoutRepository) {
				repo.EXPECT().GetUserCheckout(gomock.Any(), userID, checkoutID).
					Return(model.Checkout{ID: checkoutID, UserID: userID, Returned: true}, nil)
			},
			wantErr: errs.ErrAlreadyReturned,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := mock_repository.NewMockCheckoutRepository(ctrl)
			tt.mock(repo)

			pub := &capturePublisher{}
			svc := NewCheckoutService(repo, nil, pub, time.Hour, zap.NewNop())

			co, err := svc.ReturnBook(context.Background(), userID, checkoutID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, pub.events)
				return
			}
			require.NoError(t, err)
			require.True(t, co.Returned)
			require.Len(t, pub.events, 1)
			require.Equal(t, model.EventReturned, pub.events[0].Type)
		})
	}
}

func TestCheckoutService_MarkOverdueBooks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_repository.NewMockCheckoutRepository(ctrl)
	pub := &capturePublisher{}
	svc := NewCheckoutService(repo, nil, pub, time.Hour, zap.NewNop())

	repo.EXPECT().MarkOverdue(gomock.Any(), gomock.Any()).Return(int64(3), nil)
	marked, err := svc.MarkOverdueBooks(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, marked)
	require.Len(t, pub.events, 1)
	require.Equal(t, model.EventOverdueSweep, pub.events[0].Type)
	require.EqualValues(t, 3, pub.events[0].Marked)

	// nothing marked, nothing published
	repo.EXPECT().MarkOverdue(gomock.Any(), gomock.Any()).Return(int64(0), nil)
	marked, err = svc.MarkOverdueBooks(context.Background())
	require.NoError(t, err)
	require.Zero(t, marked)
	require.Len(t, pub.events, 1)

	repo.EXPECT().MarkOverdue(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("db down"))
	_, err = svc.MarkOverdueBooks(context.Background())
	require.Error(t, err)
}

func TestCheckoutService_NilPublisher(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_repository.NewMockCheckoutRepository(ctrl)
	books := mock_repository.NewMockBookRepository(ctrl)
	svc := NewCheckoutService(repo, books, nil, time.Hour, zap.NewNop())

	books.EXPECT().GetBook(gomock.Any(), int64(1)).Return(model.Book{ID: 1}, nil)
	repo.EXPECT().ListActiveByUser(gomock.Any(), int64(2)).Return(nil, nil)
	repo.EXPECT().CreateCheckout(gomock.Any(), int64(2), int64(1), gomock.Any()).
		Return(model.Checkout{ID: 1}, nil)

	_, err := svc.CheckoutBook(context.Background(), 2, 1)
	require.NoError(t, err)
}

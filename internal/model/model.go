package model

import (
	"time"
)

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// PageQuery is the read-side shaping of any listing: requested page,
// page size, optional sort field and order.
type PageQuery struct {
	Page  int
	Limit int
	Sort  string
	Order Order
}

func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Order != OrderDesc {
		q.Order = OrderAsc
	}
	return q
}

func (q PageQuery) Offset() int {
	offset := (q.Page - 1) * q.Limit
	if offset < 0 {
		offset = 0
	}
	return offset
}

type PageMeta struct {
	ItemCount       int  `json:"itemCount"`
	PageCount       int  `json:"pageCount"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

func NewPageMeta(limit, page, count int) PageMeta {
	pageCount := 0
	if limit > 0 {
		pageCount = (count + limit - 1) / limit
	}
	return PageMeta{
		ItemCount:       count,
		PageCount:       pageCount,
		HasNextPage:     page < pageCount,
		HasPreviousPage: page > 1,
	}
}

type Book struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Author    string    `json:"author" db:"author"`
	ISBN      string    `json:"ISBN" db:"isbn"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Location  string    `json:"location" db:"location"`
	IsDeleted bool      `json:"isDeleted" db:"is_deleted"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type User struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	IsAdmin   bool      `json:"isAdmin" db:"is_admin"`
	IsDeleted bool      `json:"isDeleted" db:"is_deleted"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Checkout struct {
	ID          int64      `json:"id" db:"id"`
	CheckoutUid string     `json:"checkoutUid" db:"checkout_uid"`
	BookID      int64      `json:"bookId" db:"book_id"`
	UserID      int64      `json:"userId" db:"user_id"`
	CheckedAt   time.Time  `json:"checkedAt" db:"checked_at"`
	DueDate     time.Time  `json:"dueDate" db:"due_date"`
	Returned    bool       `json:"returned" db:"returned"`
	ReturnedAt  *time.Time `json:"returnedAt,omitempty" db:"returned_at"`
	Overdue     bool       `json:"overdue" db:"overdue"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

// CheckoutDetail is a checkout with its related book and user rows included.
type CheckoutDetail struct {
	Checkout
	Book Book `json:"book" db:"book"`
	User User `json:"user" db:"user"`
}

// UserCheckout is a checkout with only the book relation, as seen by its owner.
type UserCheckout struct {
	Checkout
	Book Book `json:"book" db:"book"`
}

type BookDetail struct {
	Book
	Checkouts []Checkout `json:"checkouts"`
}

type UserDetail struct {
	User
	Checkouts []UserCheckout `json:"checkouts"`
}

type BookList struct {
	Meta  PageMeta `json:"meta"`
	Items []Book   `json:"items"`
}

type UserList struct {
	Meta  PageMeta `json:"meta"`
	Items []User   `json:"items"`
}

type CheckoutList struct {
	Meta  PageMeta         `json:"meta"`
	Items []CheckoutDetail `json:"items"`
}

type UserCheckoutList struct {
	Meta  PageMeta       `json:"meta"`
	Items []UserCheckout `json:"items"`
}

type BookFilter struct {
	Title  string
	Author string
	ISBN   string
}

type UserFilter struct {
	Name  string
	Email string
}

type CheckoutFilter struct {
	Overdue bool
}

type CreateBookRequest struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	ISBN     string `json:"ISBN" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
	Location string `json:"location" validate:"required,shelf_location"`
}

type UpdateBookRequest struct {
	Quantity *int    `json:"quantity" validate:"omitempty,gte=0"`
	Location *string `json:"location" validate:"omitempty,shelf_location"`
}

type RegisterRequest struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,user_password"`
	Phone    *string `json:"phone" validate:"omitempty,alphanum"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1"`
	Phone *string `json:"phone" validate:"omitempty,alphanum"`
}

type AuthResponse struct {
	User        string `json:"user"`
	AccessToken string `json:"token"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type CheckoutEventType string

const (
	EventCheckedOut   CheckoutEventType = "checked_out"
	EventRenewed      CheckoutEventType = "renewed"
	EventReturned     CheckoutEventType = "returned"
	EventOverdueSweep CheckoutEventType = "overdue_sweep"
)

// CheckoutEvent is published to the checkout event stream on lifecycle transitions.
type CheckoutEvent struct {
	Type        CheckoutEventType `json:"type"`
	CheckoutUid string            `json:"checkoutUid,omitempty"`
	BookID      int64             `json:"bookId,omitempty"`
	UserID      int64             `json:"userId,omitempty"`
	Marked      int64             `json:"marked,omitempty"`
	At          time.Time         `json:"at"`
}

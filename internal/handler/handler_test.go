package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-manager/internal/errs"
	mock_handler "github.com/Astemirdum/library-manager/internal/handler/mocks"
	"github.com/Astemirdum/library-manager/internal/model"
	"github.com/Astemirdum/library-manager/pkg/auth"
)

type testEnv struct {
	catalog  *mock_handler.MockCatalogService
	users    *mock_handler.MockUserService
	checkout *mock_handler.MockCheckoutService
	router   *echo.Echo

	userToken  string
	adminToken string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	authCfg := auth.Config{Secret: "test-secret", TokenTTL: time.Hour}

	env := &testEnv{
		catalog:  mock_handler.NewMockCatalogService(ctrl),
		users:    mock_handler.NewMockUserService(ctrl),
		checkout: mock_handler.NewMockCheckoutService(ctrl),
	}
	h := New(env.catalog, env.users, env.checkout, authCfg, zap.NewNop())
	env.router = h.NewRouter()

	var err error
	env.userToken, _, err = auth.NewToken(authCfg, auth.Identity{ID: 7, Name: "reader", Email: "reader@lib.io"})
	require.NoError(t, err)
	env.adminToken, _, err = auth.NewToken(authCfg, auth.Identity{ID: 1, Name: "admin", Email: "admin@lib.io", IsAdmin: true})
	require.NoError(t, err)

	return env
}

func (e *testEnv) do(method, target, body, token string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestHandler_ListBooks(t *testing.T) {
	env := newTestEnv(t)

	list := model.BookList{
		Meta:  model.NewPageMeta(10, 1, 2),
		Items: []model.Book{{ID: 1, Title: "Dune"}, {ID: 2, Title: "Solaris"}},
	}
	env.catalog.EXPECT().
		ListBooks(gomock.Any(), model.BookFilter{Title: "dune"}, model.PageQuery{Page: 1, Limit: 10, Order: model.OrderAsc}).
		Return(list, nil)

	rec := env.do(http.MethodGet, "/api/v1/books?title=dune&page=1&limit=10", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, mustJSON(t, list), rec.Body.String())
}

func TestHandler_ListBooks_BadQuery(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"bad page", "/api/v1/books?page=abc", `{"message":"page is invalid"}`},
		{"bad limit", "/api/v1/books?limit=x", `{"message":"limit is invalid"}`},
		{"bad order", "/api/v1/books?order=sideways", `{"message":"order is invalid"}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, tt.target, "", "")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestHandler_GetBook(t *testing.T) {
	env := newTestEnv(t)

	detail := model.BookDetail{
		Book:      model.Book{ID: 1, Title: "Dune"},
		Checkouts: []model.Checkout{{ID: 10, BookID: 1}},
	}
	env.catalog.EXPECT().GetBook(gomock.Any(), int64(1)).Return(detail, nil)

	rec := env.do(http.MethodGet, "/api/v1/books/1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, mustJSON(t, detail), rec.Body.String())
}

func TestHandler_GetBook_Errors(t *testing.T) {
	env := newTestEnv(t)

	t.Run("invalid id", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/books/abc", "", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"message":"id is invalid"}`, rec.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		env.catalog.EXPECT().GetBook(gomock.Any(), int64(99)).
			Return(model.BookDetail{}, errs.ErrNotFound)

		rec := env.do(http.MethodGet, "/api/v1/books/99", "", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.JSONEq(t, `{"message":"not found"}`, rec.Body.String())
	})
}

func TestHandler_AddBook(t *testing.T) {
	env := newTestEnv(t)

	body := `{"title":"Dune","author":"Frank Herbert","ISBN":"9780441013593","quantity":3,"location":"123.45"}`

	t.Run("no token", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/books", body, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, `{"message":"No Authorization Header"}`, rec.Body.String())
	})

	t.Run("non-admin", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/books", body, env.userToken)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.JSONEq(t, `{"message":"admin access required"}`, rec.Body.String())
	})

	t.Run("admin creates", func(t *testing.T) {
		book := model.Book{ID: 1, Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593", Quantity: 3, Location: "123.45"}
		env.catalog.EXPECT().
			AddBook(gomock.Any(), model.CreateBookRequest{
				Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593", Quantity: 3, Location: "123.45",
			}).
			Return(book, nil)

		rec := env.do(http.MethodPost, "/api/v1/books", body, env.adminToken)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.JSONEq(t, mustJSON(t, book), rec.Body.String())
	})

	t.Run("bad location", func(t *testing.T) {
		bad := `{"title":"Dune","author":"Frank Herbert","ISBN":"9780441013593","quantity":3,"location":"shelf-9"}`
		rec := env.do(http.MethodPost, "/api/v1/books", bad, env.adminToken)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("location conflict", func(t *testing.T) {
		env.catalog.EXPECT().AddBook(gomock.Any(), gomock.Any()).
			Return(model.Book{}, errs.ErrLocationUsed)

		rec := env.do(http.MethodPost, "/api/v1/books", body, env.adminToken)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"message":"location already used"}`, rec.Body.String())
	})
}

func TestHandler_BorrowBook(t *testing.T) {
	env := newTestEnv(t)

	t.Run("ok", func(t *testing.T) {
		co := model.Checkout{ID: 5, BookID: 42, UserID: 7}
		env.checkout.EXPECT().CheckoutBook(gomock.Any(), int64(7), int64(42)).Return(co, nil)

		rec := env.do(http.MethodPatch, "/api/v1/books/borrow/42", "", env.userToken)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, mustJSON(t, co), rec.Body.String())
	})

	t.Run("lending cap", func(t *testing.T) {
		env.checkout.EXPECT().CheckoutBook(gomock.Any(), int64(7), int64(42)).
			Return(model.Checkout{}, errs.ErrLendingLimit)

		rec := env.do(http.MethodPatch, "/api/v1/books/borrow/42", "", env.userToken)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"message":"you already have 3 books checked out"}`, rec.Body.String())
	})

	t.Run("overdue block", func(t *testing.T) {
		env.checkout.EXPECT().CheckoutBook(gomock.Any(), int64(7), int64(42)).
			Return(model.Checkout{}, errs.ErrOverdueBook)

		rec := env.do(http.MethodPatch, "/api/v1/books/borrow/42", "", env.userToken)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"message":"you have an overdue book, please return it first"}`, rec.Body.String())
	})

	t.Run("no token", func(t *testing.T) {
		rec := env.do(http.MethodPatch, "/api/v1/books/borrow/42", "", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandler_ReturnBook(t *testing.T) {
	env := newTestEnv(t)

	t.Run("ok", func(t *testing.T) {
		co := model.Checkout{ID: 5, BookID: 42, UserID: 7, Returned: true}
		env.checkout.EXPECT().ReturnBook(gomock.Any(), int64(7), int64(5)).Return(co, nil)

		rec := env.do(http.MethodPatch, "/api/v1/books/return/5", "", env.userToken)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, mustJSON(t, co), rec.Body.String())
	})

	t.Run("already returned", func(t *testing.T) {
		env.checkout.EXPECT().ReturnBook(gomock.Any(), int64(7), int64(5)).
			Return(model.Checkout{}, errs.ErrAlreadyReturned)

		rec := env.do(http.MethodPatch, "/api/v1/books/return/5", "", env.userToken)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"message":"checkout already returned"}`, rec.Body.String())
	})

	t.Run("not owner", func(t *testing.T) {
		env.checkout.EXPECT().ReturnBook(gomock.Any(), int64(7), int64(5)).
			Return(model.Checkout{}, errs.ErrNotFound)

		rec := env.do(http.MethodPatch, "/api/v1/books/return/5", "", env.userToken)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_Register(t *testing.T) {
	env := newTestEnv(t)

	body := `{"name":"Paul","email":"paul@arrakis.io","password":"Sp1ce!melange"}`

	t.Run("created", func(t *testing.T) {
		user := model.User{ID: 1, Name: "Paul", Email: "paul@arrakis.io"}
		env.users.EXPECT().
			Register(gomock.Any(), model.RegisterRequest{Name: "Paul", Email: "paul@arrakis.io", Password: "Sp1ce!melange"}).
			Return(user, nil)

		rec := env.do(http.MethodPost, "/api/v1/users/register", body, "")
		require.Equal(t, http.StatusCreated, rec.Code)
		require.JSONEq(t, mustJSON(t, user), rec.Body.String())
	})

	t.Run("email taken", func(t *testing.T) {
		env.users.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(model.User{}, errs.ErrEmailExists)

		rec := env.do(http.MethodPost, "/api/v1/users/register", body, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"message":"a user with this email already exists"}`, rec.Body.String())
	})

	t.Run("weak password", func(t *testing.T) {
		weak := `{"name":"Paul","email":"paul@arrakis.io","password":"password"}`
		rec := env.do(http.MethodPost, "/api/v1/users/register", weak, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_Login(t *testing.T) {
	env := newTestEnv(t)

	body := `{"email":"paul@arrakis.io","password":"Sp1ce!melange"}`

	t.Run("ok", func(t *testing.T) {
		resp := model.AuthResponse{User: "paul@arrakis.io", AccessToken: "jwt", ExpiresIn: 1700000000}
		env.users.EXPECT().
			Login(gomock.Any(), model.LoginRequest{Email: "paul@arrakis.io", Password: "Sp1ce!melange"}).
			Return(resp, nil)

		rec := env.do(http.MethodPost, "/api/v1/users/login", body, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, mustJSON(t, resp), rec.Body.String())
	})

	t.Run("wrong password", func(t *testing.T) {
		env.users.EXPECT().Login(gomock.Any(), gomock.Any()).
			Return(model.AuthResponse{}, errs.ErrWrongPassword)

		rec := env.do(http.MethodPost, "/api/v1/users/login", body, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"message":"wrong password"}`, rec.Body.String())
	})
}

func TestHandler_Me(t *testing.T) {
	env := newTestEnv(t)

	detail := model.UserDetail{
		User:      model.User{ID: 7, Name: "reader", Email: "reader@lib.io"},
		Checkouts: []model.UserCheckout{},
	}
	env.users.EXPECT().GetUser(gomock.Any(), int64(7)).Return(detail, nil)

	rec := env.do(http.MethodGet, "/api/v1/users/me", "", env.userToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, mustJSON(t, detail), rec.Body.String())
}

func TestHandler_DeleteUser(t *testing.T) {
	env := newTestEnv(t)

	t.Run("admin cannot be deleted", func(t *testing.T) {
		env.users.EXPECT().DeleteUser(gomock.Any(), int64(1)).
			Return(model.User{}, errs.ErrAdminDelete)

		rec := env.do(http.MethodDelete, "/api/v1/users/1", "", env.adminToken)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, `{"message":"admins cannot be deleted"}`, rec.Body.String())
	})

	t.Run("soft deleted user returned", func(t *testing.T) {
		user := model.User{ID: 7, Name: "reader", IsDeleted: true}
		env.users.EXPECT().DeleteUser(gomock.Any(), int64(7)).Return(user, nil)

		rec := env.do(http.MethodDelete, "/api/v1/users/7", "", env.adminToken)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, mustJSON(t, user), rec.Body.String())
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		rec := env.do(http.MethodDelete, "/api/v1/users/7", "", env.userToken)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHandler_ListOverdueCheckouts(t *testing.T) {
	env := newTestEnv(t)

	list := model.CheckoutList{
		Meta: model.NewPageMeta(10, 1, 1),
		Items: []model.CheckoutDetail{{
			Checkout: model.Checkout{ID: 5, BookID: 42, UserID: 7, Overdue: true},
			Book:     model.Book{ID: 42, Title: "Dune"},
			User:     model.User{ID: 7, Name: "reader"},
		}},
	}
	env.checkout.EXPECT().
		ListCheckouts(gomock.Any(), model.CheckoutFilter{Overdue: true}, model.PageQuery{Order: model.OrderAsc}).
		Return(list, nil)

	rec := env.do(http.MethodGet, "/api/v1/books/overdue", "", env.adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, mustJSON(t, list), rec.Body.String())
}

func TestHandler_Health(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/manage/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

package handler

import (
	"net/http"
	"strconv"

	md "github.com/Astemirdum/library-manager/pkg/middleware"

	"github.com/Astemirdum/library-manager/internal/errs"
	"github.com/Astemirdum/library-manager/internal/model"
	"github.com/Astemirdum/library-manager/pkg/auth"
	"github.com/Astemirdum/library-manager/pkg/validate"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Handler struct {
	catalogSvc  CatalogService
	userSvc     UserService
	checkoutSvc CheckoutService
	authCfg     auth.Config
	log         *zap.Logger
}

func New(catalogSvc CatalogService, userSvc UserService, checkoutSvc CheckoutService, authCfg auth.Config, log *zap.Logger) *Handler {
	h := &Handler{
		catalogSvc:  catalogSvc,
		userSvc:     userSvc,
		checkoutSvc: checkoutSvc,
		authCfg:     authCfg,
		log:         log,
	}
	return h
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	authMW := md.JwtAuthentication(h.authCfg.Secret)

	books := api.Group("/books")
	books.GET("", h.ListBooks)
	books.GET("/me", h.MyCheckouts, authMW)
	books.GET("/checkouts", h.ListCheckouts, authMW, md.AdminOnly)
	books.GET("/overdue", h.ListOverdueCheckouts, authMW, md.AdminOnly)
	books.GET("/:id", h.GetBook)
	books.POST("", h.AddBook, authMW, md.AdminOnly)
	books.PATCH("/edit/:id", h.UpdateBook, authMW, md.AdminOnly)
	books.PATCH("/borrow/:id", h.BorrowBook, authMW)
	books.PATCH("/return/:id", h.ReturnBook, authMW)
	books.DELETE("/:id", h.DeleteBook, authMW, md.AdminOnly)

	users := api.Group("/users")
	users.POST("/register", h.Register)
	users.POST("/login", h.Login)
	users.GET("/me", h.Me, authMW)
	users.PATCH("/me", h.UpdateMe, authMW)
	users.PATCH("/admin/:id", h.PromoteAdmin, authMW, md.AdminOnly)
	users.GET("", h.ListUsers, authMW, md.AdminOnly)
	users.GET("/:id", h.GetUser, authMW, md.AdminOnly)
	users.DELETE("/:id", h.DeleteUser, authMW, md.AdminOnly)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError is the single boundary mapping of the error taxonomy.
func httpError(err error) *echo.HTTPError {
	return echo.NewHTTPError(errs.Status(err), err.Error())
}

func idParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errors.New("id is invalid")
	}
	return id, nil
}

func identityFrom(c echo.Context) (auth.Identity, error) {
	identity, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return auth.Identity{}, errors.New("no identity")
	}
	return identity, nil
}

func pageFromQuery(c echo.Context) (model.PageQuery, error) {
	var (
		page model.PageQuery
		err  error
	)
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if page.Page, err = strconv.Atoi(pageParam); err != nil {
			return model.PageQuery{}, errors.New("page is invalid")
		}
	}
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if page.Limit, err = strconv.Atoi(limitParam); err != nil {
			return model.PageQuery{}, errors.New("limit is invalid")
		}
	}
	page.Sort = c.QueryParam("sort")
	switch order := c.QueryParam("order"); order {
	case "", string(model.OrderAsc):
		page.Order = model.OrderAsc
	case string(model.OrderDesc):
		page.Order = model.OrderDesc
	default:
		return model.PageQuery{}, errors.New("order is invalid")
	}
	return page, nil
}

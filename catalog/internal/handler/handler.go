package handler

import (
	"net/http"
	"strconv"

	md "github.com/bookstack-dev/catalog-service/pkg/middleware"

	"github.com/bookstack-dev/catalog-service/catalog/internal/errs"
	"github.com/bookstack-dev/catalog-service/catalog/internal/model"
	_ "github.com/bookstack-dev/catalog-service/docs"
	"github.com/bookstack-dev/catalog-service/pkg/validate"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

type Handler struct {
	catalogSvc CatalogService
	log        *zap.Logger
}

func New(catalogSvc CatalogService, log *zap.Logger) *Handler {
	h := &Handler{
		catalogSvc: catalogSvc,
		log:        log,
	}
	return h
}

// NewRouter wires the catalog routes. Everything under /api/v1 sits behind
// HTTP Basic auth against the given credential pairs, health and swagger
// stay open.
func (h *Handler) NewRouter(users map[string]string) *echo.Echo {
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
	e.HTTPErrorHandler = h.errorHandler

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
		md.NewBasicAuth(users),
	)

	api.POST("/books", h.CreateBook)
	api.GET("/books", h.SearchBooks)
	api.GET("/books/:id", h.GetBook)
	api.GET("/books/isbn/:isbn", h.GetBookByISBN)
	api.PUT("/books/:id", h.UpdateBook)
	api.DELETE("/books/:id", h.DeleteBook)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// CreateBook godoc
// @Summary  Create a new book
// @Tags     books
// @Accept   json
// @Produce  json
// @Param    book body model.BookInput true "book"
// @Success  201 {object} model.Book
// @Failure  400 {object} handler.APIError
// @Failure  409 {object} handler.APIError
// @Security BasicAuth
// @Router   /books [post]
func (h *Handler) CreateBook(c echo.Context) error {
	var req model.BookInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	book, err := h.catalogSvc.Create(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusCreated, book)
}

// GetBook godoc
// @Summary  Get a book by id
// @Tags     books
// @Produce  json
// @Param    id path int true "book id"
// @Success  200 {object} model.Book
// @Failure  404 {object} handler.APIError
// @Security BasicAuth
// @Router   /books/{id} [get]
func (h *Handler) GetBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	book, err := h.catalogSvc.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, book)
}

// GetBookByISBN godoc
// @Summary  Get a book by isbn
// @Tags     books
// @Produce  json
// @Param    isbn path string true "isbn"
// @Success  200 {object} model.Book
// @Failure  404 {object} handler.APIError
// @Security BasicAuth
// @Router   /books/isbn/{isbn} [get]
func (h *Handler) GetBookByISBN(c echo.Context) error {
	isbn := c.Param("isbn")
	if isbn == "" {
		return echo.NewHTTPError(http.StatusBadRequest, errors.New("empty isbn"))
	}
	book, err := h.catalogSvc.GetByISBN(c.Request().Context(), isbn)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, book)
}

// SearchBooks godoc
// @Summary  List books, optionally filtered
// @Tags     books
// @Produce  json
// @Param    title    query string  false "title substring, case-insensitive"
// @Param    author   query string  false "author substring, case-insensitive"
// @Param    minPrice query number  false "inclusive lower price bound"
// @Param    maxPrice query number  false "inclusive upper price bound"
// @Param    year     query int     false "published year"
// @Param    sort     query string  false "price to sort ascending by price"
// @Success  200 {object} model.ListBooks
// @Failure  400 {object} handler.APIError
// @Security BasicAuth
// @Router   /books [get]
func (h *Handler) SearchBooks(c echo.Context) error {
	f := model.SearchFilter{
		Title:  c.QueryParam("title"),
		Author: c.QueryParam("author"),
	}
	if p := c.QueryParam("minPrice"); p != "" {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("minPrice is invalid"))
		}
		f.MinPrice = &v
	}
	if p := c.QueryParam("maxPrice"); p != "" {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("maxPrice is invalid"))
		}
		f.MaxPrice = &v
	}
	if p := c.QueryParam("year"); p != "" {
		v, err := strconv.Atoi(p)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("year is invalid"))
		}
		f.Year = &v
	}
	f.SortByPrice = c.QueryParam("sort") == "price"

	books, err := h.catalogSvc.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

// UpdateBook godoc
// @Summary  Update a book by id
// @Tags     books
// @Accept   json
// @Produce  json
// @Param    id   path int             true "book id"
// @Param    book body model.BookInput true "book"
// @Success  200 {object} model.Book
// @Failure  400 {object} handler.APIError
// @Failure  404 {object} handler.APIError
// @Failure  409 {object} handler.APIError
// @Security BasicAuth
// @Router   /books/{id} [put]
func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	var req model.BookInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	book, err := h.catalogSvc.Update(c.Request().Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, errs.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, book)
}

// DeleteBook godoc
// @Summary  Delete a book by id
// @Tags     books
// @Param    id path int true "book id"
// @Success  204
// @Failure  404 {object} handler.APIError
// @Security BasicAuth
// @Router   /books/{id} [delete]
func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	if err := h.catalogSvc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func bookID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.New("id is invalid"))
	}
	return id, nil
}

package repository

import (
	"context"
	"database/sql"
	"math"

	"github.com/bookstack-dev/catalog-service/catalog/internal/errs"
	"github.com/bookstack-dev/catalog-service/catalog/internal/model"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

// Repository is the book record store. Result ordering of List is insertion
// order (ascending id) unless SortByPrice asks for ascending price.
type Repository interface {
	Create(ctx context.Context, in model.BookInput) (model.Book, error)
	GetByID(ctx context.Context, id int64) (model.Book, error)
	GetByISBN(ctx context.Context, isbn string) (model.Book, error)
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)
	Update(ctx context.Context, id int64, in model.BookInput) (model.Book, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f model.SearchFilter) (model.ListBooks, error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName = `books`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var bookColumns = []string{"id", "title", "author", "isbn", "price", "published_year", "created_at", "updated_at"}

// roundPrice keeps price at scale 2, matching the numeric(10,2) column.
func roundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *repository) Create(ctx context.Context, in model.BookInput) (model.Book, error) {
	q, args, err := qb.Insert(booksTableName).
		Columns("title", "author", "isbn", "price", "published_year").
		Values(in.Title, in.Author, in.ISBN, roundPrice(in.Price), in.PublishedYear).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		if isUniqueViolation(err) {
			return model.Book{}, errs.ErrConflict
		}
		r.log.Error("Create", zap.String("q", q), zap.Any("args", args))
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (model.Book, error) {
	q, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) GetByISBN(ctx context.Context, isbn string) (model.Book, error) {
	q, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"isbn": isbn}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	q := `select exists(select 1 from books where isbn = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, q, isbn).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *repository) Update(ctx context.Context, id int64, in model.BookInput) (model.Book, error) {
	q, args, err := qb.Update(booksTableName).
		Set("title", in.Title).
		Set("author", in.Author).
		Set("isbn", in.ISBN).
		Set("price", roundPrice(in.Price)).
		Set("published_year", in.PublishedYear).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		if isUniqueViolation(err) {
			return model.Book{}, errs.ErrConflict
		}
		r.log.Error("Update", zap.String("q", q), zap.Any("args", args))
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	q, args, err := qb.Delete(booksTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, f model.SearchFilter) (model.ListBooks, error) {
	q := qb.Select(bookColumns...).
		From(booksTableName)

	if f.Title != "" {
		q = q.Where(sq.ILike{"title": "%" + f.Title + "%"})
	}
	if f.Author != "" {
		q = q.Where(sq.ILike{"author": "%" + f.Author + "%"})
	}
	if f.MinPrice != nil {
		q = q.Where(sq.GtOrEq{"price": *f.MinPrice})
	}
	if f.MaxPrice != nil {
		q = q.Where(sq.LtOrEq{"price": *f.MaxPrice})
	}
	if f.Year != nil {
		q = q.Where(sq.Eq{"published_year": *f.Year})
	}
	if f.SortByPrice {
		q = q.OrderBy("price asc")
	} else {
		q = q.OrderBy("id asc")
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	r.log.Debug("List", zap.String("query", query), zap.Any("args", args))

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return model.ListBooks{}, err
	}

	return model.ListBooks{
		TotalElements: len(books),
		Items:         books,
	}, nil
}

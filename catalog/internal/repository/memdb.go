package repository

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bookstack-dev/catalog-service/catalog/internal/errs"
	"github.com/bookstack-dev/catalog-service/catalog/internal/model"
	"github.com/hashicorp/go-memdb"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// memStore keeps book records in a go-memdb table with unique id and isbn
// indexes. Write transactions are serialized by memdb, which is what keeps
// the isbn-uniqueness check-then-insert safe under concurrent writers.
// Ids are assigned from a monotonic counter and never reused after delete.
type memStore struct {
	db  *memdb.MemDB
	seq int64
	log *zap.Logger
}

var _ Repository = (*memStore)(nil)

func NewMemStore(log *zap.Logger) (*memStore, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			booksTableName: {
				Name: booksTableName,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
					"isbn": {
						Name:    "isbn",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ISBN"},
					},
				},
			},
		},
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, errors.Wrap(err, "init memdb")
	}
	return &memStore{
		db:  db,
		log: log.Named("memstore"),
	}, nil
}

func (s *memStore) Create(_ context.Context, in model.BookInput) (model.Book, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(booksTableName, "isbn", in.ISBN)
	if err != nil {
		return model.Book{}, err
	}
	if raw != nil {
		return model.Book{}, errs.ErrConflict
	}

	now := time.Now().UTC()
	book := model.Book{
		ID:            atomic.AddInt64(&s.seq, 1),
		Title:         in.Title,
		Author:        in.Author,
		ISBN:          in.ISBN,
		Price:         roundPrice(in.Price),
		PublishedYear: in.PublishedYear,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := txn.Insert(booksTableName, &book); err != nil {
		return model.Book{}, err
	}
	txn.Commit()

	s.log.Debug("Create", zap.Int64("id", book.ID), zap.String("isbn", book.ISBN))
	return book, nil
}

func (s *memStore) GetByID(_ context.Context, id int64) (model.Book, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(booksTableName, "id", id)
	if err != nil {
		return model.Book{}, err
	}
	if raw == nil {
		return model.Book{}, errs.ErrNotFound
	}
	return *raw.(*model.Book), nil
}

func (s *memStore) GetByISBN(_ context.Context, isbn string) (model.Book, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(booksTableName, "isbn", isbn)
	if err != nil {
		return model.Book{}, err
	}
	if raw == nil {
		return model.Book{}, errs.ErrNotFound
	}
	return *raw.(*model.Book), nil
}

func (s *memStore) ExistsByISBN(_ context.Context, isbn string) (bool, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(booksTableName, "isbn", isbn)
	if err != nil {
		return false, err
	}
	return raw != nil, nil
}

func (s *memStore) Update(_ context.Context, id int64, in model.BookInput) (model.Book, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(booksTableName, "id", id)
	if err != nil {
		return model.Book{}, err
	}
	if raw == nil {
		return model.Book{}, errs.ErrNotFound
	}
	prev := raw.(*model.Book)

	if in.ISBN != prev.ISBN {
		other, err := txn.First(booksTableName, "isbn", in.ISBN)
		if err != nil {
			return model.Book{}, err
		}
		if other != nil {
			return model.Book{}, errs.ErrConflict
		}
	}

	book := model.Book{
		ID:            prev.ID,
		Title:         in.Title,
		Author:        in.Author,
		ISBN:          in.ISBN,
		Price:         roundPrice(in.Price),
		PublishedYear: in.PublishedYear,
		CreatedAt:     prev.CreatedAt,
		UpdatedAt:     time.Now().UTC(),
	}
	if err := txn.Insert(booksTableName, &book); err != nil {
		return model.Book{}, err
	}
	txn.Commit()

	return book, nil
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(booksTableName, "id", id)
	if err != nil {
		return err
	}
	if raw == nil {
		return errs.ErrNotFound
	}
	if err := txn.Delete(booksTableName, raw); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (s *memStore) List(_ context.Context, f model.SearchFilter) (model.ListBooks, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(booksTableName, "id")
	if err != nil {
		return model.ListBooks{}, err
	}

	books := make([]model.Book, 0)
	for raw := it.Next(); raw != nil; raw = it.Next() {
		book := raw.(*model.Book)
		if matches(book, f) {
			books = append(books, *book)
		}
	}

	if f.SortByPrice {
		sort.SliceStable(books, func(i, j int) bool {
			return books[i].Price < books[j].Price
		})
	}

	return model.ListBooks{
		TotalElements: len(books),
		Items:         books,
	}, nil
}

func matches(b *model.Book, f model.SearchFilter) bool {
	if f.Title != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(f.Title)) {
		return false
	}
	if f.Author != "" && !strings.Contains(strings.ToLower(b.Author), strings.ToLower(f.Author)) {
		return false
	}
	if f.MinPrice != nil && b.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && b.Price > *f.MaxPrice {
		return false
	}
	if f.Year != nil && (b.PublishedYear == nil || *b.PublishedYear != *f.Year) {
		return false
	}
	return true
}

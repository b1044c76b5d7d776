package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/bookstack-dev/catalog-service/catalog/internal/errs"
	"github.com/bookstack-dev/catalog-service/catalog/internal/model"
	"github.com/bookstack-dev/catalog-service/catalog/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStore(t *testing.T) repository.Repository {
	t.Helper()
	store, err := repository.NewMemStore(zap.NewNop())
	require.NoError(t, err)
	return store
}

func input(title, author, isbn string, price float64) model.BookInput {
	return model.BookInput{
		Title:  title,
		Author: author,
		ISBN:   isbn,
		Price:  price,
	}
}

func TestMemStore_CreateAndGet(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, input("1984", "George Orwell", "9780451524935", 11.99))
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)
	require.Equal(t, created.CreatedAt, created.UpdatedAt)

	byID, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, byID)

	byISBN, err := store.GetByISBN(ctx, "9780451524935")
	require.NoError(t, err)
	require.Equal(t, created, byISBN)

	exists, err := store.ExistsByISBN(ctx, "9780451524935")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = store.ExistsByISBN(ctx, "9999999999")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestMemStore_CreateDuplicateISBN(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, input("1984", "George Orwell", "9780451524935", 11.99))
	require.NoError(t, err)

	_, err = store.Create(ctx, input("Animal Farm", "George Orwell", "9780451524935", 8.99))
	require.ErrorIs(t, err, errs.ErrConflict)

	list, err := store.List(ctx, model.SearchFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, list.TotalElements)
}

func TestMemStore_Update(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()

	in := input("1984", "George Orwell", "9780451524935", 11.99)
	created, err := store.Create(ctx, in)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	updated, err := store.Update(ctx, created.ID, in)
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, created.Title, updated.Title)
	require.Equal(t, created.Author, updated.Author)
	require.Equal(t, created.ISBN, updated.ISBN)
	require.Equal(t, created.Price, updated.Price)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestMemStore_UpdateNotFound(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, 42, input("1984", "George Orwell", "9780451524935", 11.99))
	require.ErrorIs(t, err, errs.ErrNotFound)

	list, err := store.List(ctx, model.SearchFilter{})
	require.NoError(t, err)
	require.Equal(t, 0, list.TotalElements)
}

func TestMemStore_UpdateISBNConflict(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, input("1984", "George Orwell", "9780451524935", 11.99))
	require.NoError(t, err)
	_, err = store.Create(ctx, input("Animal Farm", "George Orwell", "9780452284241", 8.99))
	require.NoError(t, err)

	// taking another record's isbn is a conflict
	_, err = store.Update(ctx, first.ID, input("1984", "George Orwell", "9780452284241", 11.99))
	require.ErrorIs(t, err, errs.ErrConflict)

	// keeping its own isbn is not
	_, err = store.Update(ctx, first.ID, input("Nineteen Eighty-Four", "George Orwell", "9780451524935", 12.99))
	require.NoError(t, err)
}

func TestMemStore_DeleteThenGet(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, input("1984", "George Orwell", "9780451524935", 11.99))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, created.ID))

	_, err = store.GetByID(ctx, created.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, created.ID), errs.ErrNotFound)

	// ids are never reused after a delete
	next, err := store.Create(ctx, input("Animal Farm", "George Orwell", "9780452284241", 8.99))
	require.NoError(t, err)
	require.Greater(t, next.ID, created.ID)
}

func TestMemStore_SearchCaseInsensitive(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, input("The Great Gatsby", "F. Scott Fitzgerald", "9780743273565", 10.99))
	require.NoError(t, err)
	_, err = store.Create(ctx, input("1984", "George Orwell", "9780451524935", 11.99))
	require.NoError(t, err)

	for _, needle := range []string{"Gatsby", "GATSBY", "gatsby"} {
		list, err := store.List(ctx, model.SearchFilter{Title: needle})
		require.NoError(t, err)
		require.Equal(t, 1, list.TotalElements)
		require.Equal(t, "The Great Gatsby", list.Items[0].Title)
	}

	list, err := store.List(ctx, model.SearchFilter{Author: "orwell"})
	require.NoError(t, err)
	require.Equal(t, 1, list.TotalElements)
	require.Equal(t, "1984", list.Items[0].Title)
}

func TestMemStore_SearchPriceBoundsInclusive(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()

	prices := []float64{9.99, 10, 15.5, 20, 20.01}
	isbns := []string{"1000000001", "1000000002", "1000000003", "1000000004", "1000000005"}
	for i, p := range prices {
		_, err := store.Create(ctx, input("Book", "Author", isbns[i], p))
		require.NoError(t, err)
	}

	min, max := 10.0, 20.0
	list, err := store.List(ctx, model.SearchFilter{MinPrice: &min, MaxPrice: &max})
	require.NoError(t, err)
	require.Equal(t, 3, list.TotalElements)
	for _, b := range list.Items {
		require.GreaterOrEqual(t, b.Price, min)
		require.LessOrEqual(t, b.Price, max)
	}
}

func TestMemStore_SearchSortByPrice(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, input("B", "x", "1000000001", 20))
	require.NoError(t, err)
	_, err = store.Create(ctx, input("A", "x", "1000000002", 5))
	require.NoError(t, err)
	_, err = store.Create(ctx, input("C", "x", "1000000003", 10))
	require.NoError(t, err)

	// default is insertion order
	list, err := store.List(ctx, model.SearchFilter{})
	require.NoError(t, err)
	require.Equal(t, []float64{20, 5, 10}, itemPrices(list))

	list, err = store.List(ctx, model.SearchFilter{SortByPrice: true})
	require.NoError(t, err)
	require.Equal(t, []float64{5, 10, 20}, itemPrices(list))
}

func TestMemStore_SearchYear(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()

	year := 1949
	in := input("1984", "George Orwell", "9780451524935", 11.99)
	in.PublishedYear = &year
	_, err := store.Create(ctx, in)
	require.NoError(t, err)
	_, err = store.Create(ctx, input("No Year", "Anon", "1000000001", 5))
	require.NoError(t, err)

	list, err := store.List(ctx, model.SearchFilter{Year: &year})
	require.NoError(t, err)
	require.Equal(t, 1, list.TotalElements)
	require.Equal(t, "1984", list.Items[0].Title)

	other := 2000
	list, err = store.List(ctx, model.SearchFilter{Year: &other})
	require.NoError(t, err)
	require.Equal(t, 0, list.TotalElements)
}

func TestMemStore_PriceScale(t *testing.T) {
	t.Parallel()
	store := newStore(t)

	created, err := store.Create(context.Background(), input("Book", "Author", "1000000001", 10.999))
	require.NoError(t, err)
	require.Equal(t, 11.0, created.Price)
}

func itemPrices(list model.ListBooks) []float64 {
	out := make([]float64, 0, len(list.Items))
	for _, b := range list.Items {
		out = append(out, b.Price)
	}
	return out
}

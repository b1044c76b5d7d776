package handler

import (
	"context"

	"github.com/bookstack-dev/catalog-service/catalog/internal/model"
	"github.com/bookstack-dev/catalog-service/catalog/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type CatalogService interface {
	Create(ctx context.Context, in model.BookInput) (model.Book, error)
	GetByID(ctx context.Context, id int64) (model.Book, error)
	GetByISBN(ctx context.Context, isbn string) (model.Book, error)
	List(ctx context.Context, f model.SearchFilter) (model.ListBooks, error)
	Update(ctx context.Context, id int64, in model.BookInput) (model.Book, error)
	Delete(ctx context.Context, id int64) error
}

var _ CatalogService = (*service.Service)(nil)

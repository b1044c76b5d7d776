package service

import (
	"context"
	"time"

	"github.com/bookstack-dev/catalog-service/catalog/internal/errs"
	"github.com/bookstack-dev/catalog-service/catalog/internal/events"
	"github.com/bookstack-dev/catalog-service/catalog/internal/model"
	catalogRepo "github.com/bookstack-dev/catalog-service/catalog/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	log  *zap.Logger
	repo catalogRepo.Repository
	pub  events.Publisher
}

func NewService(repo catalogRepo.Repository, pub events.Publisher, log *zap.Logger) *Service {
	return &Service{
		log:  log,
		repo: repo,
		pub:  pub,
	}
}

func (s *Service) Create(ctx context.Context, in model.BookInput) (model.Book, error) {
	exists, err := s.repo.ExistsByISBN(ctx, in.ISBN)
	if err != nil {
		return model.Book{}, err
	}
	if exists {
		return model.Book{}, errs.ErrConflict
	}

	book, err := s.repo.Create(ctx, in)
	if err != nil {
		return model.Book{}, err
	}
	s.publish(ctx, events.TypeCreated, book)
	return book, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (model.Book, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByISBN(ctx context.Context, isbn string) (model.Book, error) {
	return s.repo.GetByISBN(ctx, isbn)
}

func (s *Service) List(ctx context.Context, f model.SearchFilter) (model.ListBooks, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Update(ctx context.Context, id int64, in model.BookInput) (model.Book, error) {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.Book{}, err
	}

	// conflict check only when the isbn actually changes, a record may
	// always keep its own isbn
	if in.ISBN != book.ISBN {
		exists, err := s.repo.ExistsByISBN(ctx, in.ISBN)
		if err != nil {
			return model.Book{}, err
		}
		if exists {
			return model.Book{}, errs.ErrConflict
		}
	}

	updated, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return model.Book{}, err
	}
	s.publish(ctx, events.TypeUpdated, updated)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.TypeDeleted, book)
	return nil
}

// publish is best-effort: a broker failure must not fail the request.
func (s *Service) publish(ctx context.Context, eventType string, book model.Book) {
	ev := events.BookEvent{
		EventID:   uuid.NewString(),
		Type:      eventType,
		BookID:    book.ID,
		ISBN:      book.ISBN,
		Timestamp: time.Now().UTC(),
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Error("publish event", zap.String("type", eventType), zap.Int64("bookId", book.ID), zap.Error(err))
	}
}

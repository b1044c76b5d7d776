package service_test

import (
	"context"
	"testing"

	"github.com/bookstack-dev/catalog-service/catalog/internal/errs"
	"github.com/bookstack-dev/catalog-service/catalog/internal/events"
	"github.com/bookstack-dev/catalog-service/catalog/internal/model"
	repo_mocks "github.com/bookstack-dev/catalog-service/catalog/internal/repository/mocks"
	"github.com/bookstack-dev/catalog-service/catalog/internal/service"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturingPublisher struct {
	published []events.BookEvent
}

func (p *capturingPublisher) Publish(_ context.Context, ev events.BookEvent) error {
	p.published = append(p.published, ev)
	return nil
}

func testInput() model.BookInput {
	return model.BookInput{
		Title:  "1984",
		Author: "George Orwell",
		ISBN:   "9780451524935",
		Price:  11.99,
	}
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	in := testInput()
	stored := model.Book{ID: 1, Title: in.Title, Author: in.Author, ISBN: in.ISBN, Price: in.Price}

	tests := []struct {
		name         string
		mockBehavior func(r *repo_mocks.MockRepository)
		wantErr      error
		wantEvents   int
	}{
		{
			name: "ok",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().ExistsByISBN(gomock.Any(), in.ISBN).Return(false, nil)
				r.EXPECT().Create(gomock.Any(), in).Return(stored, nil)
			},
			wantEvents: 1,
		},
		{
			name: "isbn conflict",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().ExistsByISBN(gomock.Any(), in.ISBN).Return(true, nil)
			},
			wantErr: errs.ErrConflict,
		},
		{
			name: "store error",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().ExistsByISBN(gomock.Any(), in.ISBN).Return(false, nil)
				r.EXPECT().Create(gomock.Any(), in).Return(model.Book{}, errors.New("db internal"))
			},
			wantErr: errors.New("db internal"),
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			repo := repo_mocks.NewMockRepository(c)
			tt.mockBehavior(repo)
			pub := &capturingPublisher{}
			svc := service.NewService(repo, pub, zap.NewNop())

			book, err := svc.Create(context.Background(), in)
			if tt.wantErr != nil {
				require.EqualError(t, err, tt.wantErr.Error())
			} else {
				require.NoError(t, err)
				require.Equal(t, stored, book)
			}
			require.Len(t, pub.published, tt.wantEvents)
			if tt.wantEvents > 0 {
				require.Equal(t, events.TypeCreated, pub.published[0].Type)
				require.Equal(t, stored.ID, pub.published[0].BookID)
				require.NotEmpty(t, pub.published[0].EventID)
			}
		})
	}
}

func TestService_Update(t *testing.T) {
	t.Parallel()

	current := model.Book{ID: 1, Title: "1984", Author: "George Orwell", ISBN: "9780451524935", Price: 11.99}

	tests := []struct {
		name         string
		in           model.BookInput
		mockBehavior func(r *repo_mocks.MockRepository, in model.BookInput)
		wantErr      error
		wantEvents   int
	}{
		{
			name: "ok same isbn skips uniqueness check",
			in:   testInput(),
			mockBehavior: func(r *repo_mocks.MockRepository, in model.BookInput) {
				r.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)
				r.EXPECT().Update(gomock.Any(), current.ID, in).Return(current, nil)
			},
			wantEvents: 1,
		},
		{
			name: "ok changed isbn with no collision",
			in: model.BookInput{
				Title: "1984", Author: "George Orwell", ISBN: "9780452284241", Price: 11.99,
			},
			mockBehavior: func(r *repo_mocks.MockRepository, in model.BookInput) {
				r.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)
				r.EXPECT().ExistsByISBN(gomock.Any(), in.ISBN).Return(false, nil)
				r.EXPECT().Update(gomock.Any(), current.ID, in).Return(current, nil)
			},
			wantEvents: 1,
		},
		{
			name: "changed isbn collides",
			in: model.BookInput{
				Title: "1984", Author: "George Orwell", ISBN: "9780452284241", Price: 11.99,
			},
			mockBehavior: func(r *repo_mocks.MockRepository, in model.BookInput) {
				r.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)
				r.EXPECT().ExistsByISBN(gomock.Any(), in.ISBN).Return(true, nil)
			},
			wantErr: errs.ErrConflict,
		},
		{
			name: "not found",
			in:   testInput(),
			mockBehavior: func(r *repo_mocks.MockRepository, in model.BookInput) {
				r.EXPECT().GetByID(gomock.Any(), current.ID).Return(model.Book{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			repo := repo_mocks.NewMockRepository(c)
			tt.mockBehavior(repo, tt.in)
			pub := &capturingPublisher{}
			svc := service.NewService(repo, pub, zap.NewNop())

			_, err := svc.Update(context.Background(), current.ID, tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Len(t, pub.published, tt.wantEvents)
			if tt.wantEvents > 0 {
				require.Equal(t, events.TypeUpdated, pub.published[0].Type)
			}
		})
	}
}

func TestService_Delete(t *testing.T) {
	t.Parallel()

	current := model.Book{ID: 1, ISBN: "9780451524935"}

	tests := []struct {
		name         string
		mockBehavior func(r *repo_mocks.MockRepository)
		wantErr      error
		wantEvents   int
	}{
		{
			name: "ok",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)
				r.EXPECT().Delete(gomock.Any(), current.ID).Return(nil)
			},
			wantEvents: 1,
		},
		{
			name: "not found",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().GetByID(gomock.Any(), current.ID).Return(model.Book{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			repo := repo_mocks.NewMockRepository(c)
			tt.mockBehavior(repo)
			pub := &capturingPublisher{}
			svc := service.NewService(repo, pub, zap.NewNop())

			err := svc.Delete(context.Background(), current.ID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Len(t, pub.published, tt.wantEvents)
			if tt.wantEvents > 0 {
				require.Equal(t, events.TypeDeleted, pub.published[0].Type)
				require.Equal(t, current.ISBN, pub.published[0].ISBN)
			}
		})
	}
}

func TestService_PublishFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	in := testInput()
	repo.EXPECT().ExistsByISBN(gomock.Any(), in.ISBN).Return(false, nil)
	repo.EXPECT().Create(gomock.Any(), in).Return(model.Book{ID: 1, ISBN: in.ISBN}, nil)

	svc := service.NewService(repo, failingPublisher{}, zap.NewNop())
	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.BookEvent) error {
	return errors.New("broker down")
}

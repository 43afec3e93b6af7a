package update

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) UpdatePost(ctx context.Context, id int64, update models.PostUpdate) (*models.Post, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func titleIs(title string) any {
	return mock.MatchedBy(func(u models.PostUpdate) bool {
		return u.Title != nil && *u.Title == title
	})
}

func TestUpdateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		id         string
		body       string
		mockID     int64
		matcher    any
		mockPost   *models.Post
		mockErr    error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "title change",
			id:         "3",
			body:       `{"title":"New title"}`,
			mockID:     3,
			matcher:    titleIs("New title"),
			mockPost:   &models.Post{ID: 3, Title: "New title", Slug: "new-title"},
			wantStatus: http.StatusOK,
			wantBody:   `"slug":"new-title"`,
		},
		{
			name:       "publish now",
			id:         "3",
			body:       `{"publishNow":true}`,
			mockID:     3,
			matcher:    mock.MatchedBy(func(u models.PostUpdate) bool { return u.PublishNow && u.Title == nil }),
			mockPost:   &models.Post{ID: 3, Status: models.StatusPublished},
			wantStatus: http.StatusOK,
			wantBody:   `"status":"published"`,
		},
		{
			name:       "bad id",
			id:         "-1",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `"error":"invalid id"`,
		},
		{
			name:       "empty title rejected",
			id:         "3",
			body:       `{"title":""}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `field Title must be at least 1`,
		},
		{
			name:       "missing",
			id:         "42",
			body:       `{"title":"x"}`,
			mockID:     42,
			matcher:    titleIs("x"),
			mockErr:    storage.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantBody:   `"error":"post not found"`,
		},
		{
			name:       "failure",
			id:         "42",
			body:       `{"title":"x"}`,
			mockID:     42,
			matcher:    titleIs("x"),
			mockErr:    errors.New("down"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `"error":"failed to update post"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.matcher != nil {
				svc.On("UpdatePost", mock.Anything, tt.mockID, tt.matcher).Return(tt.mockPost, tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodPut, "/api/admin/posts/"+tt.id, strings.NewReader(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			rec := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/techblog/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Search(ctx context.Context, query string, page, limit int) ([]models.Post, error) {
	args := m.Called(ctx, query, page, limit)
	posts, _ := args.Get(0).([]models.Post)
	return posts, args.Error(1)
}

func TestSearchHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		url        string
		callQuery  string
		callPage   int
		callLimit  int
		mockPosts  []models.Post
		mockErr    error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "match",
			url:        "/api/search?query=go",
			callQuery:  "go",
			callPage:   1,
			callLimit:  10,
			mockPosts:  []models.Post{{ID: 1, Title: "Go tips", Slug: "go-tips"}},
			wantStatus: http.StatusOK,
			wantBody:   `"slug":"go-tips"`,
		},
		{
			name:       "paged",
			url:        "/api/search?query=%20rust%20&page=2&limit=5",
			callQuery:  "rust",
			callPage:   2,
			callLimit:  5,
			wantStatus: http.StatusOK,
			wantBody:   `[]`,
		},
		{
			name:       "too short",
			url:        "/api/search?query=a",
			wantStatus: http.StatusBadRequest,
			wantBody:   `"error":"field Query must be at least 2"`,
		},
		{
			name:       "missing",
			url:        "/api/search",
			wantStatus: http.StatusBadRequest,
			wantBody:   `"error":"field Query is a required field"`,
		},
		{
			name:       "storage failure degrades",
			url:        "/api/search?query=cloud",
			callQuery:  "cloud",
			callPage:   1,
			callLimit:  10,
			mockErr:    errors.New("down"),
			wantStatus: http.StatusOK,
			wantBody:   `[]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.callQuery != "" {
				svc.On("Search", mock.Anything, tt.callQuery, tt.callPage, tt.callLimit).Return(tt.mockPosts, tt.mockErr).Once()
			}

			rec := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

package handlers

import (
	"context"
	"net/http"

	"zeus-backend/internal/service/categories"
	"zeus-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// CategoryFeed is the part of *categories.Feed the HTTP layer uses.
type CategoryFeed interface {
	List(ctx context.Context) []string
	Add(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
	Subscribe(ctx context.Context) (*categories.Subscription, error)
	Snapshot(ctx context.Context) ([]string, bool)
}

var _ CategoryFeed = (*categories.Feed)(nil)

// CategoryHandler serves the category list and its mutations.
type CategoryHandler struct {
	feed     CategoryFeed
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCategoryHandler(feed CategoryFeed, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		feed:     feed,
		validate: newValidator(),
		logger:   logger.Named("category_handler"),
	}
}

// ListCategories handles GET /api/v1/categories. It never fails.
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, api.CategoryListResponse{Categories: h.feed.List(r.Context())})
}

// CreateCategory handles POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req api.CategoryRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	if err := h.feed.Add(r.Context(), req.Name); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusCreated, api.CategoryListResponse{Categories: h.feed.List(r.Context())})
}

// DeleteCategory handles DELETE /api/v1/categories/{name} and
// DELETE /api/v1/categories?name=..., the latter for names containing "/".
// Every category with that name is removed.
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		name = r.URL.Query().Get("name")
	}
	if err := h.feed.Delete(r.Context(), name); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, api.CategoryListResponse{Categories: h.feed.List(r.Context())})
}

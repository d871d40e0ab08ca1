package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"zeus-backend/internal/domain"
	"zeus-backend/internal/service/posts"
	"zeus-backend/pkg/api"
	appErrors "zeus-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	formImage  = "image"
	formImages = "images"

	// multipartMemory is how much of a form is held in memory before spilling to disk.
	multipartMemory = 8 << 20
)

// PostHandler serves post and image operations.
type PostHandler struct {
	service       posts.Service
	validate      *validator.Validate
	maxUploadSize int64
	logger        *zap.Logger
}

// NewPostHandler creates a handler. maxUploadSize bounds a whole request body;
// zero disables the bound.
func NewPostHandler(service posts.Service, maxUploadSize int64, logger *zap.Logger) *PostHandler {
	return &PostHandler{
		service:       service,
		validate:      newValidator(),
		maxUploadSize: maxUploadSize,
		logger:        logger.Named("post_handler"),
	}
}

func (h *PostHandler) limitBody(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
}

// bodyError maps a failed body read to a response error.
func (h *PostHandler) bodyError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	handleServiceError(w, r, h.logger, appErrors.NewValidation("malformed upload"))
}

// UploadImage handles POST /api/v1/images. The image is either the raw body
// or the "image" part of a multipart form.
func (h *PostHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r)

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		var file multipart.File
		file, _, err = r.FormFile(formImage)
		if err == nil {
			data, err = io.ReadAll(file)
			file.Close()
		}
	} else {
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		h.bodyError(w, r, err)
		return
	}

	url, err := h.service.UploadImage(r.Context(), data)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusCreated, api.ImageResponse{URL: url})
}

// CreatePost handles POST /api/v1/posts with a multipart form of title,
// content, category and any number of "images" parts, uploaded in form order.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.bodyError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	images, err := readParts(r.MultipartForm.File[formImages])
	if err != nil {
		h.bodyError(w, r, err)
		return
	}

	id, err := h.service.CreatePost(r.Context(), posts.NewPost{
		Title:    r.FormValue("title"),
		Content:  r.FormValue("content"),
		Category: r.FormValue("category"),
		Images:   images,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusCreated, api.CreatePostResponse{ID: id})
}

func readParts(headers []*multipart.FileHeader) ([][]byte, error) {
	out := make([][]byte, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

// ListPosts handles GET /api/v1/posts[?category=]. Store failures yield an empty list.
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	var list []domain.Post
	if category := r.URL.Query().Get("category"); category != "" {
		list = h.service.FetchPostsByCategory(r.Context(), category)
	} else {
		list = h.service.FetchPosts(r.Context())
	}
	api.Success(w, http.StatusOK, toPostList(list))
}

// SearchPosts handles GET /api/v1/posts/search?q=
func (h *PostHandler) SearchPosts(w http.ResponseWriter, r *http.Request) {
	list := h.service.SearchPosts(r.Context(), r.URL.Query().Get("q"))
	api.Success(w, http.StatusOK, toPostList(list))
}

// GetPost handles GET /api/v1/posts/{postID}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, toPostResponse(post))
}

// UpdatePost handles PUT /api/v1/posts/{postID}. Images are not changed.
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req api.UpdatePostRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	err := h.service.UpdatePost(r.Context(), domain.Post{
		ID:       chi.URLParam(r, "postID"),
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeletePost handles DELETE /api/v1/posts/{postID} and reports the image cleanup outcome.
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "postID")
	outcome, err := h.service.DeletePost(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, api.DeletePostResponse{ID: id, Cleanup: string(outcome)})
}

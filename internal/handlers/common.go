// Package handlers serves the bulletin-board operations over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"zeus-backend/internal/domain"
	"zeus-backend/internal/infrastructure/logging"
	"zeus-backend/pkg/api"
	appErrors "zeus-backend/pkg/errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// newValidator reports field errors by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads and validates a request body into dst.
func decodeJSON(r *http.Request, v *validator.Validate, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return appErrors.NewValidation("request body is not valid JSON")
	}
	if err := v.Struct(dst); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return appErrors.NewValidation("invalid field: " + fields[0].Field())
		}
		return appErrors.NewValidation("invalid request")
	}
	return nil
}

// handleServiceError logs err at a level matching its kind and writes the
// mapped response.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	log := logging.WithContext(r.Context(), logger)
	switch appErrors.TypeOf(err) {
	case appErrors.ErrorTypeValidation, appErrors.ErrorTypeNotFound, appErrors.ErrorTypeAuth:
		log.Debug("request rejected", zap.Error(err))
	case appErrors.ErrorTypeInternal:
		log.Error("internal error", zap.Error(err))
	default:
		log.Warn("backend operation failed", zap.Error(err))
	}
	api.FromError(w, err)
}

func toPostResponse(p domain.Post) api.PostResponse {
	urls := p.ImageURLs
	if urls == nil {
		urls = []string{}
	}
	return api.PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Category:  p.Category,
		ImageURLs: urls,
		CreatedAt: p.CreatedAt,
	}
}

func toPostList(posts []domain.Post) api.PostListResponse {
	out := make([]api.PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	return api.PostListResponse{Posts: out, Count: len(out)}
}

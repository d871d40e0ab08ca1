// Package posts synchronizes posts between callers and the remote stores:
// image upload, post CRUD, search, and image cleanup on delete.
package posts

import (
	"context"
	"strings"

	"zeus-backend/internal/domain"
	"zeus-backend/internal/infrastructure/observability"
	"zeus-backend/internal/repository"
	"zeus-backend/internal/storage"
	appErrors "zeus-backend/pkg/errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ImageContentType is the content type every post image is stored with.
const ImageContentType = "image/jpeg"

// Service defines the post operations offered to the presentation layer.
//
// Mutations fail closed: any store failure is returned to the caller. Reads
// other than GetPost fail open: a store failure yields an empty list.
type Service interface {
	// UploadImage stores one image under a fresh path and returns its public URL.
	UploadImage(ctx context.Context, data []byte) (string, error)

	// CreatePost uploads every image in order, then writes the post. No post is
	// written unless every upload succeeded. Returns the new post id.
	CreatePost(ctx context.Context, input NewPost) (string, error)

	// UpdatePost overwrites title, content and category of the post with post.ID.
	// Images are left as stored.
	UpdatePost(ctx context.Context, post domain.Post) error

	// DeletePost removes the post and, best effort, every image it references.
	DeletePost(ctx context.Context, id string) (CleanupOutcome, error)

	GetPost(ctx context.Context, id string) (domain.Post, error)

	FetchPosts(ctx context.Context) []domain.Post

	// FetchPostsByCategory filters FetchPosts by exact category. A blank
	// category returns every post.
	FetchPostsByCategory(ctx context.Context, category string) []domain.Post

	// SearchPosts returns posts whose title or content contains query, ignoring case.
	SearchPosts(ctx context.Context, query string) []domain.Post
}

// NewPost is the input of CreatePost.
type NewPost struct {
	Title    string
	Content  string
	Category string
	Images   [][]byte
}

// CleanupOutcome reports how thoroughly a delete removed the post's images.
type CleanupOutcome string

const (
	// CleanupFull means every referenced image was removed (or there were none).
	CleanupFull CleanupOutcome = "full"
	// CleanupPartial means some image paths could not be parsed or removed.
	CleanupPartial CleanupOutcome = "partial"
	// CleanupSkipped means the post could not be read, so no image was touched.
	CleanupSkipped CleanupOutcome = "skipped"
)

type Config struct {
	Bucket string
	// PublicBaseURL is the storage base the public URL is built on,
	// e.g. https://<project>.supabase.co/storage/v1.
	PublicBaseURL     string
	FallbackCategory  string
	MaxImages         int
	MaxImageBytes     int64
	UploadConcurrency int
}

type service struct {
	docs    repository.DocumentStore
	objects storage.ObjectStore
	paths   *storage.PathGenerator
	cfg     Config
	logger  *zap.Logger
	metrics *observability.Collector
	tracer  trace.Tracer
}

// NewService creates a post service over the given stores. metrics may be nil.
func NewService(
	docs repository.DocumentStore,
	objects storage.ObjectStore,
	cfg Config,
	logger *zap.Logger,
	metrics *observability.Collector,
) Service {
	if cfg.Bucket == "" {
		cfg.Bucket = storage.DefaultBucket
	}
	if cfg.UploadConcurrency <= 0 {
		cfg.UploadConcurrency = 4
	}
	return &service{
		docs:    docs,
		objects: objects,
		paths:   storage.NewPathGenerator(),
		cfg:     cfg,
		logger:  logger.Named("posts"),
		metrics: metrics,
		tracer:  observability.Tracer("zeus-backend/posts"),
	}
}

func (s *service) UploadImage(ctx context.Context, data []byte) (_ string, err error) {
	ctx, span := s.tracer.Start(ctx, "posts.UploadImage",
		trace.WithAttributes(attribute.Int("image.bytes", len(data))))
	defer func() { observability.EndSpan(span, err) }()

	if err := s.validateImage(data); err != nil {
		return "", err
	}
	return s.upload(ctx, s.paths.Next(), data)
}

func (s *service) validateImage(data []byte) error {
	if len(data) == 0 {
		return appErrors.NewValidation("image must not be empty")
	}
	if s.cfg.MaxImageBytes > 0 && int64(len(data)) > s.cfg.MaxImageBytes {
		return appErrors.NewValidation("image exceeds the maximum size")
	}
	return nil
}

func (s *service) upload(ctx context.Context, path string, data []byte) (string, error) {
	err := s.objects.Upload(ctx, s.cfg.Bucket, path, data, ImageContentType)
	s.metrics.ImageUploaded(err)
	if err != nil {
		return "", classify(err, appErrors.NewUpload, "image upload failed")
	}
	return storage.PublicURL(s.cfg.PublicBaseURL, s.cfg.Bucket, path), nil
}

func (s *service) CreatePost(ctx context.Context, input NewPost) (id string, err error) {
	ctx, span := s.tracer.Start(ctx, "posts.CreatePost",
		trace.WithAttributes(
			attribute.String("post.category", input.Category),
			attribute.Int("post.image_count", len(input.Images)),
		))
	defer func() { observability.EndSpan(span, err) }()

	if strings.TrimSpace(input.Title) == "" {
		return "", appErrors.NewValidation("title cannot be empty")
	}
	if s.cfg.MaxImages > 0 && len(input.Images) > s.cfg.MaxImages {
		return "", appErrors.NewValidation("too many images")
	}
	for _, img := range input.Images {
		if err := s.validateImage(img); err != nil {
			return "", err
		}
	}

	urls, paths, err := s.uploadAll(ctx, input.Images)
	if err != nil {
		s.logger.Error("post creation aborted by image upload", zap.Error(err))
		return "", err
	}

	post := domain.Post{
		Title:     input.Title,
		Content:   input.Content,
		Category:  s.category(input.Category),
		ImageURLs: urls,
	}
	doc, err := repository.Encode(post.ToRecord())
	if err != nil {
		s.discard(ctx, paths)
		return "", appErrors.NewInternal("failed to encode post", err)
	}

	id, err = s.docs.Insert(ctx, repository.CollectionPosts, doc)
	if err != nil {
		s.logger.Error("post insert failed", zap.Error(err))
		s.discard(ctx, paths)
		return "", classify(err, appErrors.NewWrite, "failed to save post")
	}

	s.metrics.PostCreated()
	s.logger.Info("post created", zap.String("post_id", id), zap.Int("image_count", len(urls)))
	return id, nil
}

// uploadAll uploads images concurrently, keeping results in input order. Paths
// are assigned in input order before any upload starts. On any failure the
// images already stored are removed and the first error is returned.
func (s *service) uploadAll(ctx context.Context, images [][]byte) ([]string, []string, error) {
	urls := make([]string, len(images))
	paths := make([]string, len(images))
	for i := range images {
		paths[i] = s.paths.Next()
	}

	uploaded := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.UploadConcurrency)
	for i, img := range images {
		g.Go(func() error {
			url, err := s.upload(gctx, paths[i], img)
			if err != nil {
				return err
			}
			urls[i], uploaded[i] = url, paths[i]
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.discard(ctx, uploaded)
		return nil, nil, err
	}
	return urls, paths, nil
}

// discard removes uploaded objects that will not be referenced by any post.
func (s *service) discard(ctx context.Context, paths []string) {
	var stored []string
	for _, p := range paths {
		if p != "" {
			stored = append(stored, p)
		}
	}
	if len(stored) == 0 {
		return
	}
	if err := s.objects.Remove(context.WithoutCancel(ctx), s.cfg.Bucket, stored); err != nil {
		s.logger.Warn("failed to remove orphaned images", zap.Strings("paths", stored), zap.Error(err))
	}
}

func (s *service) UpdatePost(ctx context.Context, post domain.Post) (err error) {
	ctx, span := s.tracer.Start(ctx, "posts.UpdatePost",
		trace.WithAttributes(observability.PostAttributes(post)...))
	defer func() { observability.EndSpan(span, err) }()

	if post.ID == "" {
		return appErrors.NewValidation("post id is required")
	}
	if strings.TrimSpace(post.Title) == "" {
		return appErrors.NewValidation("title cannot be empty")
	}

	// Update on a missing id matches nothing and would otherwise look like success.
	existing, err := s.docs.SelectFiltered(ctx, repository.CollectionPosts, byID(post.ID))
	if err != nil {
		s.logger.Error("post lookup before update failed", zap.String("post_id", post.ID), zap.Error(err))
		return classify(err, appErrors.NewWrite, "failed to update post")
	}
	if len(existing) == 0 {
		return appErrors.NewNotFound("post not found")
	}

	doc := repository.Document{
		domain.FieldTitle:    post.Title,
		domain.FieldContent:  post.Content,
		domain.FieldCategory: s.category(post.Category),
	}
	if err := s.docs.Update(ctx, repository.CollectionPosts, byID(post.ID), doc); err != nil {
		s.logger.Error("post update failed", zap.String("post_id", post.ID), zap.Error(err))
		return classify(err, appErrors.NewWrite, "failed to update post")
	}

	s.logger.Info("post updated", zap.String("post_id", post.ID))
	return nil
}

func (s *service) DeletePost(ctx context.Context, id string) (outcome CleanupOutcome, err error) {
	ctx, span := s.tracer.Start(ctx, "posts.DeletePost",
		trace.WithAttributes(attribute.String("post.id", id)))
	defer func() {
		span.SetAttributes(attribute.String("cleanup.outcome", string(outcome)))
		observability.EndSpan(span, err)
	}()

	if id == "" {
		return CleanupSkipped, appErrors.NewValidation("post id is required")
	}

	outcome = s.cleanupImages(ctx, id)
	s.metrics.Cleanup(string(outcome))

	if err := s.docs.Delete(ctx, repository.CollectionPosts, byID(id)); err != nil {
		s.logger.Error("post delete failed", zap.String("post_id", id), zap.Error(err))
		return outcome, classify(err, appErrors.NewWrite, "failed to delete post")
	}

	s.metrics.PostDeleted()
	s.logger.Info("post deleted", zap.String("post_id", id), zap.String("cleanup", string(outcome)))
	return outcome, nil
}

// cleanupImages removes every image the stored post references. It never fails.
func (s *service) cleanupImages(ctx context.Context, id string) CleanupOutcome {
	docs, err := s.docs.SelectFiltered(ctx, repository.CollectionPosts, byID(id))
	if err != nil {
		s.logger.Warn("could not read post before delete, images left in place",
			zap.String("post_id", id), zap.Error(err))
		return CleanupSkipped
	}
	if len(docs) == 0 {
		return CleanupSkipped
	}

	outcome := CleanupFull
	var paths []string
	for _, doc := range docs {
		var rec domain.PostRecord
		if err := repository.Decode(doc, &rec); err != nil {
			s.logger.Warn("undecodable post record", zap.String("post_id", id), zap.Error(err))
			outcome = CleanupPartial
			continue
		}
		for _, url := range rec.ReferencedImageURLs() {
			path, ok := storage.PathFromURL(url, s.cfg.Bucket)
			if !ok {
				s.logger.Warn("image url outside bucket", zap.String("post_id", id), zap.String("url", url))
				outcome = CleanupPartial
				continue
			}
			paths = append(paths, path)
		}
	}

	if len(paths) == 0 {
		return outcome
	}
	if err := s.objects.Remove(ctx, s.cfg.Bucket, paths); err != nil {
		s.logger.Warn("image cleanup failed", zap.String("post_id", id), zap.Strings("paths", paths), zap.Error(err))
		return CleanupPartial
	}
	return outcome
}

func (s *service) GetPost(ctx context.Context, id string) (post domain.Post, err error) {
	ctx, span := s.tracer.Start(ctx, "posts.GetPost",
		trace.WithAttributes(attribute.String("post.id", id)))
	defer func() { observability.EndSpan(span, err) }()

	if id == "" {
		return domain.Post{}, appErrors.NewValidation("post id is required")
	}

	docs, err := s.docs.SelectFiltered(ctx, repository.CollectionPosts, byID(id))
	if err != nil {
		return domain.Post{}, classify(err, appErrors.NewRead, "failed to read post")
	}
	posts := s.decode(docs)
	if len(posts) == 0 {
		return domain.Post{}, appErrors.NewNotFound("post not found")
	}
	return posts[0], nil
}

func (s *service) FetchPosts(ctx context.Context) []domain.Post {
	ctx, span := s.tracer.Start(ctx, "posts.FetchPosts")
	defer span.End()

	docs, err := s.docs.SelectAll(ctx, repository.CollectionPosts)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("post list unavailable, returning empty list", zap.Error(err))
		return []domain.Post{}
	}
	posts := s.decode(docs)
	span.SetAttributes(attribute.Int("post.count", len(posts)))
	return posts
}

func (s *service) FetchPostsByCategory(ctx context.Context, category string) []domain.Post {
	all := s.FetchPosts(ctx)
	if category == "" {
		return all
	}

	out := make([]domain.Post, 0, len(all))
	for _, p := range all {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func (s *service) SearchPosts(ctx context.Context, query string) []domain.Post {
	ctx, span := s.tracer.Start(ctx, "posts.SearchPosts",
		trace.WithAttributes(attribute.Int("query.length", len(query))))
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return []domain.Post{}
	}

	filter := repository.AnyContains(query, domain.FieldTitle, domain.FieldContent)
	docs, err := s.docs.SelectFiltered(ctx, repository.CollectionPosts, filter)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("post search unavailable, returning empty list", zap.Error(err))
		return []domain.Post{}
	}
	return s.decode(docs)
}

// decode converts records to posts, dropping (and logging) undecodable ones.
func (s *service) decode(docs []repository.Document) []domain.Post {
	posts := make([]domain.Post, 0, len(docs))
	for _, doc := range docs {
		var rec domain.PostRecord
		if err := repository.Decode(doc, &rec); err != nil {
			s.logger.Warn("skipping undecodable post record",
				zap.String("post_id", repository.IDString(doc[repository.FieldID])), zap.Error(err))
			continue
		}
		posts = append(posts, rec.ToPost(s.cfg.FallbackCategory))
	}
	return posts
}

func (s *service) category(c string) string {
	if strings.TrimSpace(c) == "" {
		return s.cfg.FallbackCategory
	}
	return c
}

func byID(id string) repository.Predicate {
	return repository.Eq{Field: domain.FieldID, Value: id}
}

// classify keeps errors that already carry a type (e.g. an open circuit) and
// wraps the rest with ctor.
func classify(err error, ctor func(string, error) error, message string) error {
	if appErrors.TypeOf(err) != appErrors.ErrorTypeInternal {
		return err
	}
	return ctor(message, err)
}

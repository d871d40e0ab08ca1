package api

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// CredentialsRequest is the body of sign-in and sign-up.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// SessionResponse describes the current auth state.
type SessionResponse struct {
	State     string `json:"state"`
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// SignUpResponse is returned after registration.
type SignUpResponse struct {
	UserID               string `json:"user_id,omitempty"`
	Email                string `json:"email"`
	ConfirmationRequired bool   `json:"confirmation_required"`
}

// ImageResponse carries the public URL of an uploaded image.
type ImageResponse struct {
	URL string `json:"url"`
}

// CreatePostResponse is returned after a post is written.
type CreatePostResponse struct {
	ID string `json:"id"`
}

// UpdatePostRequest is the body of PUT /posts/{id}.
type UpdatePostRequest struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// DeletePostResponse reports how much of the post's image set was removed.
type DeletePostResponse struct {
	ID      string `json:"id"`
	Cleanup string `json:"cleanup"`
}

// PostResponse is the API representation of a single post.
type PostResponse struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	ImageURLs []string `json:"image_urls"`
	CreatedAt string   `json:"created_at,omitempty"`
}

// PostListResponse wraps a list of posts.
type PostListResponse struct {
	Posts []PostResponse `json:"posts"`
	Count int            `json:"count"`
}

// CategoryRequest is the body of POST /categories.
type CategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

// CategoryListResponse is the full, sorted category list. It is also the
// payload of every live-feed message.
type CategoryListResponse struct {
	Categories []string `json:"categories"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Categories  bool   `json:"categories_loaded"`
}

package transport

// StoryRequest is the body of story capture and revision calls.
type StoryRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TaskRequest is the body of task add and revision calls.
type TaskRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type AuthLoginRequest struct {
	UserID string `json:"user_id"`
	TTL    int    `json:"ttl_seconds"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id"`
	TTL       int    `json:"ttl_seconds"`
}

type RevokeRequest struct {
	SessionID string `json:"session_id"`
}

// StoryPageMeta carries the pagination cursor of a story listing page.
type StoryPageMeta struct {
	NextPageToken string `json:"next_page_token,omitempty"`
}

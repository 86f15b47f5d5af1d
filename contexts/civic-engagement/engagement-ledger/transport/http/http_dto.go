package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateEntityRequest struct {
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Goal        *int     `json:"goal,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type CountsResponse struct {
	Upvotes    int `json:"upvotes"`
	Downvotes  int `json:"downvotes"`
	Signatures int `json:"signatures"`
	Likes      int `json:"likes"`
}

type EntityResponse struct {
	EntityID    string         `json:"entity_id"`
	Kind        string         `json:"kind"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	AuthorID    string         `json:"author_id,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Status      string         `json:"status"`
	Goal        *int           `json:"goal,omitempty"`
	Version     int64          `json:"version"`
	Counts      CountsResponse `json:"counts"`
}

type EntityListResponse struct {
	Items []EntityResponse `json:"items"`
}

type RecordActionRequest struct {
	Action string `json:"action"`
}

type RecordActionResponse struct {
	Entity           EntityResponse `json:"entity"`
	Counts           CountsResponse `json:"counts"`
	Switched         bool           `json:"switched"`
	ThresholdCrossed bool           `json:"threshold_crossed"`
}

type ActorEngagementItem struct {
	Action     string `json:"action"`
	Group      string `json:"group"`
	RecordedAt string `json:"recorded_at"`
}

type ActorEngagementResponse struct {
	EntityID string                `json:"entity_id"`
	ActorID  string                `json:"actor_id"`
	Items    []ActorEngagementItem `json:"items"`
}

type AddCommentRequest struct {
	Content string `json:"content"`
}

type CommentResponse struct {
	CommentID string `json:"comment_id"`
	EntityID  string `json:"entity_id"`
	ActorID   string `json:"actor_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type CommentListResponse struct {
	Items []CommentResponse `json:"items"`
}

package trending

// TopicForm is the body of the add and remove form posts.
type TopicForm struct {
	Topic string `form:"topic" json:"topic" validate:"required,max=64"`
}

// SetTopicsRequest replaces the whole list. An empty list is allowed; a missing one
// is not. Each element follows the TopicForm rules so the sidebar can remove it.
type SetTopicsRequest struct {
	Topics []string `json:"topics" validate:"required,dive,required,max=64"`
}

// TopicsResponse is the JSON view of the store.
type TopicsResponse struct {
	Topics  []string `json:"topics"`
	Version uint64   `json:"version"`
}

// RefreshResponse reports a completed refresh.
type RefreshResponse struct {
	Topics     []string `json:"topics"`
	Version    uint64   `json:"version"`
	DurationMS int64    `json:"duration_ms"`
}

// ErrorResponse is the JSON body returned for API errors.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

package entities

// TokenUsage is the usage record returned by the completion endpoint for one request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResult is a successful completion: text, usage and measured duration.
type CompletionResult struct {
	Content        string     `json:"content"`
	Usage          TokenUsage `json:"usage"`
	ResponseTimeMs int64      `json:"response_time_ms"`
	Model          string     `json:"model"`
}

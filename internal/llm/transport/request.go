package transport

// Request is a normalized inference request flowing through the pipeline.
type Request struct {
	// Model is the inference endpoint's model identifier.
	Model string

	// Prompt is the fully rendered prompt text.
	Prompt string

	// Temperature controls sampling randomness.
	Temperature float64

	// MaxTokens caps output length. Zero means the client default.
	MaxTokens int

	// MaxRetries overrides the configured attempt budget for this request.
	// Zero means the client default.
	MaxRetries int

	// TraceID correlates pipeline log entries for one request. Assigned by
	// the logging middleware when empty.
	TraceID string
}

// Response is a normalized successful inference response.
type Response struct {
	// Content is the model's raw output text.
	Content string `json:"content"`

	// Model echoes the model that produced the response.
	Model string `json:"model"`

	// Tokens is the number of output tokens generated, when reported.
	Tokens int `json:"tokens"`

	// PromptTokens is the number of prompt tokens evaluated, when reported.
	PromptTokens int `json:"prompt_tokens"`

	// FromCache marks responses served by the cache middleware.
	FromCache bool `json:"-"`
}

package chi

// ErrorCode is a machine-readable error code in error responses.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchResultItem is one hit.
type SearchResultItem struct {
	PhotoID string  `json:"photo_id"`
	Score   float64 `json:"score"`
}

// SearchResponse is one page of hits.
type SearchResponse struct {
	Page         int                `json:"page"`
	PerPage      int                `json:"per_page"`
	TotalResults int                `json:"total_results"`
	Results      []SearchResultItem `json:"results"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

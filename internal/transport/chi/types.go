package chi

import "encoding/json"

type errorCode string

const (
	codeBadRequest           errorCode = "bad_request"
	codeUnauthorized         errorCode = "unauthorized"
	codeValidationFailed     errorCode = "validation_failed"
	codeInvalidConfiguration errorCode = "invalid_configuration"
	codeNotTrained           errorCode = "not_trained"
	codeSnapshotNotFound     errorCode = "snapshot_not_found"
	codeStorageDisabled      errorCode = "storage_disabled"
	codeTimeout              errorCode = "timeout"
	codeInternalError        errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type bidirectionalRequest struct {
	Source json.RawMessage `json:"source"`
	Target json.RawMessage `json:"target"`
}

type trainResponse struct {
	Documents int    `json:"documents"`
	State     string `json:"state"`
}

type similarItem struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type similarResponse struct {
	Items []similarItem `json:"items"`
	Start int           `json:"start"`
	Total int           `json:"total"`
}

// optionsRequest holds a full configuration replacement; absent fields take defaults.
type optionsRequest struct {
	MaxVectorSize       *int     `json:"max_vector_size"`
	MaxSimilarDocuments *int     `json:"max_similar_documents"`
	MinScore            *float64 `json:"min_score"`
}

type optionsResponse struct {
	MaxVectorSize       int     `json:"max_vector_size"`
	MaxSimilarDocuments int     `json:"max_similar_documents"`
	MinScore            float64 `json:"min_score"`
}

type statusResponse struct {
	State     string          `json:"state"`
	Documents int             `json:"documents"`
	Edges     int             `json:"edges"`
	TrainedAt *string         `json:"trained_at,omitempty"`
	Options   optionsResponse `json:"options"`
	Version   string          `json:"version"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

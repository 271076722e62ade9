package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"

	"gllauncher/internal/license"
)

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Additional fields for extensibility
	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON custom marshaler to include extensions
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{})

	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status

	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}

	for k, v := range pd.Extensions {
		data[k] = v
	}

	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// validationStatusCodes maps validation error codes to HTTP statuses.
var validationStatusCodes = map[license.ErrorCode]int{
	license.CodeFormat:            http.StatusBadRequest,
	license.CodeNotFound:          http.StatusNotFound,
	license.CodeStatus:            http.StatusForbidden,
	license.CodeExpired:           http.StatusForbidden,
	license.CodeConnectivity:      http.StatusServiceUnavailable,
	license.CodeDeviceLimit:       http.StatusConflict,
	license.CodeDeviceDeactivated: http.StatusForbidden,
	license.CodeDeviceBlacklisted: http.StatusForbidden,
	license.CodeActivationFailed:  http.StatusConflict,
	license.CodeInconsistentState: http.StatusBadGateway,
}

// FromValidationError converts a core validation rejection into an
// RFC 7807 problem response.
func FromValidationError(verr *license.ValidationError, traceID string) *ProblemDetails {
	status, ok := validationStatusCodes[verr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}

	problem := NewProblemDetails(
		status,
		"/errors/license-validation",
		"License Validation Failed",
		verr.Message,
		"/api/license/activate#"+traceID,
	)
	problem.WithExtension("error_code", string(verr.Code)).
		WithExtension("retryable", verr.Retryable).
		WithExtension("trace_id", traceID)
	return problem
}

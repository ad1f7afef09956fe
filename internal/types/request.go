package types

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RunRequest is the request body accepted by the run endpoints.
type RunRequest struct {
	UserInput      string `json:"user_input" validate:"required"`
	JobDescription string `json:"job_description,omitempty"`
	JobURL         string `json:"job_url,omitempty" validate:"omitempty,url,excluded_with=JobDescription"`
	Mode           string `json:"mode,omitempty" validate:"omitempty,oneof=FULL_PIPELINE WRITE_ONLY REVIEW_ONLY ANALYZE_ONLY"`
}

// RunResponse is the response body returned by the run endpoint.
type RunResponse struct {
	RunID  string `json:"run_id"`
	Mode   string `json:"mode"`
	Output string `json:"output"`
}

var validate = newValidator()

// newValidator reports fields by their JSON names so errors can be shown to
// API callers as-is.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate validates the RunRequest using the validator.
func (r *RunRequest) Validate() error {
	return validate.Struct(r)
}

package types

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// AnalyzeTextRequest is the JSON body of POST /analyze_text.
type AnalyzeTextRequest struct {
	ResumeText     string `json:"resume_text" validate:"required,max=1048576"`
	JobDescription string `json:"job_description" validate:"required,max=1048576"`
}

// Validate validates the AnalyzeTextRequest using the validator.
func (r *AnalyzeTextRequest) Validate() error {
	return validate.Struct(r)
}

// UploadForm carries the non-file fields of a multipart upload.
type UploadForm struct {
	FileName       string `validate:"required"`
	JobDescription string `validate:"max=1048576"`
	RequireJob     bool
}

// Validate validates the UploadForm using the validator.
func (f *UploadForm) Validate() error {
	if err := validate.Struct(f); err != nil {
		return err
	}
	if f.RequireJob && strings.TrimSpace(f.JobDescription) == "" {
		return fmt.Errorf("validation error: JobDescription - required")
	}
	return nil
}

// ValidationMessage turns validator errors into a short caller-facing message.
func ValidationMessage(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
	}
	if err != nil {
		return err.Error()
	}
	return "validation error: invalid request"
}

// ErrorResponse is the JSON body of every failed HTTP request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

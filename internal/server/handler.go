package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"resumatch/internal/errors"
	"resumatch/internal/pipeline"
	"resumatch/internal/types"
	"resumatch/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// analyzeHandler handles POST /analyze: multipart resume file plus a
// job_description field.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.analyze")
	defer span.End()

	doc, job, err := s.readUpload(r, true)
	if err != nil {
		s.writeFailure(ctx, w, r, span, err)
		return
	}

	result, err := s.pipeline.Analyze(ctx, doc, job)
	if err != nil {
		s.writeFailure(ctx, w, r, span, err)
		return
	}
	setMatchAttributes(span, result)
	writeJSON(w, http.StatusOK, result)
}

// analyzeTextHandler handles POST /analyze_text with a JSON body.
func (s *Server) analyzeTextHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.analyze_text")
	defer span.End()

	var req types.AnalyzeTextRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeFailure(ctx, w, r, span, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeFailure(ctx, w, r, span,
			errors.NewValidationError(errors.ErrCodeInvalidRequest, types.ValidationMessage(err), err))
		return
	}
	span.SetAttributes(
		attribute.Int("request.resume_length", len(req.ResumeText)),
		attribute.Int("request.job_length", len(req.JobDescription)),
	)

	result, err := s.pipeline.Analyze(ctx, types.TextInput(req.ResumeText), req.JobDescription)
	if err != nil {
		s.writeFailure(ctx, w, r, span, err)
		return
	}
	setMatchAttributes(span, result)
	writeJSON(w, http.StatusOK, result)
}

// parseResumeHandler handles POST /parse_resume: multipart resume file and
// an optional job_description field.
func (s *Server) parseResumeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.parse_resume")
	defer span.End()

	doc, job, err := s.readUpload(r, false)
	if err != nil {
		s.writeFailure(ctx, w, r, span, err)
		return
	}

	result, err := s.pipeline.Parse(ctx, doc, job)
	if err != nil {
		s.writeFailure(ctx, w, r, span, err)
		return
	}
	span.SetAttributes(
		attribute.Int("parse.skills", len(result.Skills)),
		attribute.Float64("parse.ats_score", result.ATS.Score),
	)
	writeJSON(w, http.StatusOK, result)
}

// readUpload reads the "resume" file and "job_description" field of a
// multipart form into a Document.
func (s *Server) readUpload(r *http.Request, requireJob bool) (types.Document, string, error) {
	if err := r.ParseMultipartForm(s.maxRequestSize); err != nil {
		return types.Document{}, "", bodyError(err, "multipart/form-data body required")
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("resume")
	if err != nil {
		return types.Document{}, "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"resume file is required", err)
	}
	defer func() { _ = file.Close() }()

	form := types.UploadForm{
		FileName:       header.Filename,
		JobDescription: r.FormValue("job_description"),
		RequireJob:     requireJob,
	}
	if err := form.Validate(); err != nil {
		return types.Document{}, "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			types.ValidationMessage(err), err)
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.Pipeline.MaxDocumentBytes+1))
	if err != nil {
		return types.Document{}, "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read uploaded file", err)
	}
	if int64(len(data)) > s.cfg.Pipeline.MaxDocumentBytes {
		return types.Document{}, "", errors.NewExtractionError(errors.ErrCodeDocumentTooLarge,
			fmt.Sprintf("resume exceeds the %s limit", utils.FormatFileSize(s.cfg.Pipeline.MaxDocumentBytes)), nil).
			WithContext("name", header.Filename)
	}

	kind := utils.DetectDocumentKind(header.Filename, header.Header.Get("Content-Type"), data)
	return types.FileInput(header.Filename, kind, data), form.JobDescription, nil
}

func (s *Server) startSpan(r *http.Request, name string) (context.Context, trace.Span) {
	ctx, span := s.obs.Tracer("resumatch.api").Start(r.Context(), name)
	span.SetAttributes(attribute.String("request.id", pipeline.RequestID(ctx)))
	return ctx, span
}

// writeFailure records err on the span and writes the mapped response.
// Pipeline errors were already logged by the pipeline.
func (s *Server) writeFailure(ctx context.Context, w http.ResponseWriter, r *http.Request, span trace.Span, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", string(errors.TypeOf(err))))
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Debug("Request failed", "request_id", pipeline.RequestID(ctx), "status", status)
	}
	writeAppError(w, r, status, err)
}

func setMatchAttributes(span trace.Span, result *types.MatchResult) {
	span.SetAttributes(
		attribute.String("match.prediction", string(result.Prediction)),
		attribute.Float64("match.confidence", result.ConfidenceScore),
		attribute.Float64("match.similarity", result.SimilarityScore),
	)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeExtraction:
		return http.StatusUnprocessableEntity
	case errors.ErrorTypeClassifierUnavailable:
		return http.StatusServiceUnavailable
	case errors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// bodyError classifies a failure to read the request body.
func bodyError(err error, message string) error {
	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		return errors.NewExtractionError(errors.ErrCodeDocumentTooLarge,
			fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
	}
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, message, err)
}

// internal/api/respond.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "equireal-workers/internal/common/errors"
	"equireal-workers/internal/common/validation"
	"equireal-workers/internal/pipeline"
)

type errorBody struct {
	Code             string                       `json:"code"`
	Message          string                       `json:"message"`
	Details          string                       `json:"details,omitempty"`
	Retryable        bool                         `json:"retryable"`
	ValidationErrors []validation.ValidationError `json:"validationErrors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err onto its StandardError code and HTTP status.
// fieldErrs, when given, take precedence over any carried by err.
func (s *Server) writeError(w http.ResponseWriter, err error, fieldErrs ...validation.ValidationError) {
	stdErr := apperrors.Normalize(err)
	status := apperrors.HTTPStatus(stdErr.Code)

	body := errorBody{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
	}
	switch {
	case len(fieldErrs) > 0:
		body.ValidationErrors = fieldErrs
	default:
		if errs, ok := pipeline.IsProfileError(err); ok {
			body.ValidationErrors = errs
		} else if errs, ok := stdErr.Metadata["validationErrors"].([]validation.ValidationError); ok {
			body.ValidationErrors = errs
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request error", map[string]interface{}{
			"code":  body.Code,
			"error": err.Error(),
		})
		// Internal details stay in the log.
		if !stdErr.Retryable {
			body.Details = ""
		}
	}
	writeJSON(w, status, map[string]interface{}{"error": body})
}

// decodeBody reads a JSON object into dst. An empty body leaves dst untouched
// when allowEmpty is set.
func decodeBody(r *http.Request, dst interface{}, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

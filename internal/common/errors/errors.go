// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Deal pipeline errors
const (
	ErrCodeProfileValidationFailed ErrorCode = "PROFILE_VALIDATION_FAILED"
	ErrCodeUnknownStrategy         ErrorCode = "UNKNOWN_STRATEGY"
	ErrCodeDocumentRenderFailed    ErrorCode = "DOCUMENT_RENDER_FAILED"

	ErrCodeDealNotFound            ErrorCode = "DEAL_NOT_FOUND"
	ErrCodeDuplicateDeal           ErrorCode = "DUPLICATE_DEAL"
	ErrCodeInvalidStatusTransition ErrorCode = "INVALID_STATUS_TRANSITION"

	ErrCodeInvalidWizardTransition ErrorCode = "INVALID_WIZARD_TRANSITION"
	ErrCodeWizardSessionNotFound   ErrorCode = "WIZARD_SESSION_NOT_FOUND"
	ErrCodeWizardStepInvalid       ErrorCode = "WIZARD_STEP_INVALID"

	ErrCodeFeedbackValidationFailed ErrorCode = "FEEDBACK_VALIDATION_FAILED"
	ErrCodeInvalidRequest           ErrorCode = "INVALID_REQUEST"
)

// Infrastructure errors
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout                 ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"
	ErrCodeInvalidFilterFormat           ErrorCode = "INVALID_FILTER_FORMAT"

	ErrCodeCacheOperationFailed   ErrorCode = "CACHE_OPERATION_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewProfileValidationFailedError(details string) *StandardError {
	return newError(ErrCodeProfileValidationFailed, "Business profile failed validation", details, nil)
}

func NewUnknownStrategyError(name string) *StandardError {
	return newError(ErrCodeUnknownStrategy, "Unknown scoring strategy", fmt.Sprintf("strategy: %s", name), nil)
}

func NewDocumentRenderFailedError(document string, err error) *StandardError {
	return newError(ErrCodeDocumentRenderFailed, "Document rendering failed", fmt.Sprintf("document: %s, error: %v", document, err), err)
}

func NewDealNotFoundError(dealID string) *StandardError {
	return newError(ErrCodeDealNotFound, "Deal not found", fmt.Sprintf("dealId: %s", dealID), nil)
}

func NewDuplicateDealError(dealID string) *StandardError {
	return newError(ErrCodeDuplicateDeal, "Deal already exists", fmt.Sprintf("dealId: %s", dealID), nil)
}

func NewInvalidStatusTransitionError(from, to string) *StandardError {
	return newError(ErrCodeInvalidStatusTransition, "Deal status cannot change",
		fmt.Sprintf("from: %s, to: %s", from, to), nil)
}

func NewInvalidWizardTransitionError(state, event string) *StandardError {
	return newError(ErrCodeInvalidWizardTransition, "Wizard event not allowed in current step",
		fmt.Sprintf("state: %s, event: %s", state, event), nil)
}

func NewWizardSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeWizardSessionNotFound, "Wizard session not found or expired", fmt.Sprintf("sessionId: %s", sessionID), nil)
}

func NewWizardStepInvalidError(step, details string) *StandardError {
	return newError(ErrCodeWizardStepInvalid, "Wizard step failed validation", fmt.Sprintf("step: %s, %s", step, details), nil)
}

func NewFeedbackValidationFailedError(details string) *StandardError {
	return newError(ErrCodeFeedbackValidationFailed, "Feedback failed validation", details, nil)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), err)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert failed", err.Error(), err)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), err)
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("queryType: %s", queryType), nil)
}

func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Search query failed",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), err)
}

func NewSearchTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Search query timeout", fmt.Sprintf("queryType: %s", queryType), nil)
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Search index not found", fmt.Sprintf("index: %s", indexName), nil)
}

func NewInvalidFilterFormatError(details string) *StandardError {
	return newError(ErrCodeInvalidFilterFormat, "Invalid search filter", details, nil)
}

func NewCacheOperationFailedError(op string, err error) *StandardError {
	return newError(ErrCodeCacheOperationFailed, "Cache operation failed", fmt.Sprintf("op: %s, error: %v", op, err), err)
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %v", notificationType, err), err)
}

// NewInvalidRequestError reports a malformed request body or parameter.
func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Malformed request", details, nil)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes. Codes
// missing from the map are thrown unchanged.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeProfileValidationFailed:  "PROFILE_VALIDATION_FAILED",
	ErrCodeDealNotFound:             "DEAL_NOT_FOUND",
	ErrCodeDuplicateDeal:            "DUPLICATE_DEAL",
	ErrCodeInvalidStatusTransition:  "INVALID_STATUS_TRANSITION",
	ErrCodeDatabaseInsertFailed:     "DATABASE_INSERT_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeSearchQueryFailed:        "SEARCH_QUERY_FAILED",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeUnknownStrategy:          "UNKNOWN_STRATEGY",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeCacheOperationFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "WIZARD"):
		return "WIZARD"
	case strings.Contains(codeStr, "DEAL") || strings.Contains(codeStr, "STATUS"):
		return "DEAL"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY_"):
		return "DATABASE"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "STRATEGY"):
		return "VALIDATION"
	default:
		return "GENERAL"
	}
}

var knownCodes = func() map[ErrorCode]bool {
	m := make(map[ErrorCode]bool)
	for _, c := range []ErrorCode{
		ErrCodeProfileValidationFailed, ErrCodeUnknownStrategy, ErrCodeDocumentRenderFailed,
		ErrCodeDealNotFound, ErrCodeDuplicateDeal, ErrCodeInvalidStatusTransition,
		ErrCodeInvalidWizardTransition, ErrCodeWizardSessionNotFound, ErrCodeWizardStepInvalid,
		ErrCodeFeedbackValidationFailed, ErrCodeInvalidRequest, ErrCodeDatabaseConnectionFailed, ErrCodeDatabaseInsertFailed,
		ErrCodeQueryExecutionFailed, ErrCodeQueryTimeout, ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed, ErrCodeSearchTimeout, ErrCodeIndexNotFound, ErrCodeInvalidFilterFormat,
		ErrCodeCacheOperationFailed, ErrCodeNotificationSendFailed, ErrCodeInternal,
	} {
		m[c] = true
	}
	return m
}()

// Normalize returns err as a StandardError. Worker sentinels created with
// errors.New("CODE") anywhere in the wrap chain are recognised by their text.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		if code := ErrorCode(e.Error()); knownCodes[code] {
			details := err.Error()
			return newError(code, strings.ReplaceAll(strings.ToLower(string(code)), "_", " "), details, err)
		}
	}
	return NewInternalError(err)
}

// HasCode reports whether err normalizes to code.
func HasCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return Normalize(err).Code == code
}

// HTTPStatus maps a code onto the status an HTTP caller should see.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeProfileValidationFailed, ErrCodeWizardStepInvalid, ErrCodeFeedbackValidationFailed,
		ErrCodeInvalidFilterFormat, ErrCodeUnknownStrategy, ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeDealNotFound, ErrCodeWizardSessionNotFound:
		return http.StatusNotFound
	case ErrCodeDuplicateDeal, ErrCodeInvalidStatusTransition, ErrCodeInvalidWizardTransition:
		return http.StatusConflict
	}
	if IsRetryableErrorCode(code) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

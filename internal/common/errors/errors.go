// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeProfileInvalid      ErrorCode = "PROFILE_INVALID"
	ErrCodeProfileNotFound     ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeProfileLookupFailed ErrorCode = "PROFILE_LOOKUP_FAILED"

	ErrCodeCatalogUnavailable   ErrorCode = "CATALOG_UNAVAILABLE"
	ErrCodeCatalogQueryFailed   ErrorCode = "CATALOG_QUERY_FAILED"
	ErrCodeCatalogTimeout       ErrorCode = "CATALOG_TIMEOUT"
	ErrCodeNeighborhoodNotFound ErrorCode = "NEIGHBORHOOD_NOT_FOUND"

	ErrCodeContractViolation   ErrorCode = "CONTRACT_VIOLATION"
	ErrCodeConfigUpdateInvalid ErrorCode = "CONFIG_UPDATE_INVALID"
	ErrCodeMatchingCancelled   ErrorCode = "MATCHING_CANCELLED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInputSchemaInvalid     ErrorCode = "INPUT_SCHEMA_INVALID"

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

func (e *StandardError) Unwrap() error {
	return e.cause
}

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

// NewProfileInvalidError reports a profile that failed schema or contract checks.
func NewProfileInvalidError(details string) *StandardError {
	return newError(ErrCodeProfileInvalid, "User profile is invalid", details, nil)
}

func NewProfileNotFoundError(userID string) *StandardError {
	return newError(ErrCodeProfileNotFound, "User profile not found", fmt.Sprintf("userId: %s", userID), nil)
}

// NewProfileLookupFailedError wraps a storage failure while loading a profile.
func NewProfileLookupFailedError(userID string, err error) *StandardError {
	return newError(ErrCodeProfileLookupFailed, "Profile lookup failed",
		fmt.Sprintf("userId: %s, error: %s", userID, err.Error()), err)
}

// NewCatalogUnavailableError is returned when every catalog provider failed.
func NewCatalogUnavailableError(err error) *StandardError {
	return newError(ErrCodeCatalogUnavailable, "Neighborhood catalog unavailable", err.Error(), err)
}

func NewCatalogQueryFailedError(source string, err error) *StandardError {
	return newError(ErrCodeCatalogQueryFailed, "Neighborhood catalog query failed",
		fmt.Sprintf("source: %s, error: %s", source, err.Error()), err)
}

func NewCatalogTimeoutError(source string) *StandardError {
	return newError(ErrCodeCatalogTimeout, "Neighborhood catalog query timeout",
		fmt.Sprintf("source: %s", source), nil)
}

func NewNeighborhoodNotFoundError(id string) *StandardError {
	return newError(ErrCodeNeighborhoodNotFound, "Neighborhood not found", fmt.Sprintf("neighborhoodId: %s", id), nil)
}

// NewContractViolationError wraps a record the engine refused to score.
func NewContractViolationError(err error) *StandardError {
	return newError(ErrCodeContractViolation, "Input violates the matching contract", err.Error(), err)
}

func NewConfigUpdateInvalidError(err error) *StandardError {
	return newError(ErrCodeConfigUpdateInvalid, "Matching configuration update rejected", err.Error(), err)
}

// NewMatchingCancelledError is returned when a batch ran past its deadline.
func NewMatchingCancelledError(err error) *StandardError {
	return newError(ErrCodeMatchingCancelled, "Matching batch cancelled", err.Error(), err)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Failed to send notification",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), err)
}

func NewInputSchemaInvalidError(details string) *StandardError {
	return newError(ErrCodeInputSchemaInvalid, "Job input failed schema validation", details, nil)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal codes to the error codes caught by boundary
// events. Codes absent from the map are thrown unchanged.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeProfileInvalid:         "PROFILE_INVALID",
	ErrCodeProfileNotFound:        "PROFILE_NOT_FOUND",
	ErrCodeProfileLookupFailed:    "PROFILE_LOOKUP_FAILED",
	ErrCodeCatalogUnavailable:     "CATALOG_UNAVAILABLE",
	ErrCodeCatalogQueryFailed:     "CATALOG_QUERY_FAILED",
	ErrCodeCatalogTimeout:         "CATALOG_TIMEOUT",
	ErrCodeNeighborhoodNotFound:   "NEIGHBORHOOD_NOT_FOUND",
	ErrCodeContractViolation:      "CONTRACT_VIOLATION",
	ErrCodeConfigUpdateInvalid:    "CONFIG_UPDATE_INVALID",
	ErrCodeMatchingCancelled:      "MATCHING_CANCELLED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeInputSchemaInvalid:     "INPUT_SCHEMA_INVALID",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProfileLookupFailed,
		ErrCodeCatalogUnavailable,
		ErrCodeCatalogQueryFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeCatalogTimeout,
		ErrCodeMatchingCancelled:
		return 2

	default:
		return 0
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

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logging and dashboards.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "PROFILE"):
		return "PROFILE"
	case strings.HasPrefix(codeStr, "CATALOG") || strings.HasPrefix(codeStr, "NEIGHBORHOOD"):
		return "CATALOG"
	case strings.Contains(codeStr, "CONTRACT") || strings.Contains(codeStr, "CONFIG") || strings.HasPrefix(codeStr, "MATCHING"):
		return "MATCHING"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "SCHEMA"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

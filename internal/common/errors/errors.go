// Package errors provides standardized error handling for the support engine.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeRoutingConfigMissing ErrorCode = "ROUTING_CONFIG_MISSING"
	ErrCodeRoutingConfigInvalid ErrorCode = "ROUTING_CONFIG_INVALID"

	ErrCodeIndexArtifactMissing    ErrorCode = "INDEX_ARTIFACT_MISSING"
	ErrCodeMetadataArtifactMissing ErrorCode = "METADATA_ARTIFACT_MISSING"

	ErrCodeClassifyFailed   ErrorCode = "CLASSIFY_FAILED"
	ErrCodeClassifyTimeout  ErrorCode = "CLASSIFY_TIMEOUT"
	ErrCodeSentimentFailed  ErrorCode = "SENTIMENT_FAILED"
	ErrCodeEmbeddingFailed  ErrorCode = "EMBEDDING_FAILED"
	ErrCodeSearchFailed     ErrorCode = "SEARCH_FAILED"
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"

	ErrCodeAuditInsertFailed      ErrorCode = "AUDIT_INSERT_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// Error Constructors
// ==========================

// NewRoutingConfigMissingError creates a fatal startup error for a missing config document.
func NewRoutingConfigMissingError(path string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRoutingConfigMissing,
		Message:   "Routing config not found",
		Details:   fmt.Sprintf("path: %s", path),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRoutingConfigInvalidError creates a fatal startup error for a malformed config document.
func NewRoutingConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRoutingConfigInvalid,
		Message:   "Routing config failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexArtifactMissingError creates a fatal startup error for a missing vector index.
func NewIndexArtifactMissingError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexArtifactMissing,
		Message:   "Vector index artifact not available",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMetadataArtifactMissingError creates a fatal startup error for missing corpus metadata.
func NewMetadataArtifactMissingError(path string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMetadataArtifactMissing,
		Message:   "Corpus metadata not found",
		Details:   fmt.Sprintf("path: %s", path),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassifyFailedError creates a retryable classifier capability error.
func NewClassifyFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassifyFailed,
		Message:   "Intent classifier call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSentimentFailedError creates a retryable sentiment capability error.
func NewSentimentFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSentimentFailed,
		Message:   "Sentiment analyzer call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmbeddingFailedError creates a retryable embedding capability error.
func NewEmbeddingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingFailed,
		Message:   "Query embedding failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchFailedError creates a retryable similarity search error.
func NewSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchFailed,
		Message:   "Similarity search failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationFailedError creates a retryable LLM generation error.
func NewGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   "LLM generation call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditInsertFailedError creates a retryable audit store error.
func NewAuditInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditInsertFailed,
		Message:   "Interaction audit insert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Escalation notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExternalServiceError creates a generic retryable upstream error.
func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count for callers sitting at
// the serving boundary. The engine itself never retries a request.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeClassifyFailed,
		ErrCodeSentimentFailed,
		ErrCodeEmbeddingFailed,
		ErrCodeSearchFailed,
		ErrCodeGenerationFailed,
		ErrCodeAuditInsertFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeClassifyTimeout:
		return 2

	default:
		return 0 // Startup/config errors: fatal, no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "ROUTING_CONFIG"):
		return "CONFIG"
	case strings.Contains(codeStr, "ARTIFACT"):
		return "ARTIFACT"
	case strings.Contains(codeStr, "CLASSIFY") || strings.Contains(codeStr, "SENTIMENT"):
		return "MODEL"
	case strings.Contains(codeStr, "EMBEDDING") || strings.Contains(codeStr, "SEARCH"):
		return "RETRIEVAL"
	case strings.Contains(codeStr, "GENERATION"):
		return "LLM"
	case strings.Contains(codeStr, "AUDIT") || strings.Contains(codeStr, "NOTIFICATION"):
		return "SIDE_EFFECT"
	default:
		return "OTHER"
	}
}

package errors

import (
	"errors"
	"fmt"
	"time"
)

// AppError is the single error type that crosses component and context
// boundaries. Two AppErrors match under errors.Is when their codes match.
type AppError struct {
	Code      Code
	Message   string
	Context   map[string]any
	Cause     error
	Timestamp time.Time
}

// Sentinels for errors.Is checks by code.
var (
	ErrInvalidAPIKey         = &AppError{Code: CodeInvalidAPIKey}
	ErrNotAuthenticated      = &AppError{Code: CodeNotAuthenticated}
	ErrTranslationFailed     = &AppError{Code: CodeTranslationFailed}
	ErrRateLimited           = &AppError{Code: CodeRateLimited}
	ErrInvalidImage          = &AppError{Code: CodeInvalidImage}
	ErrUnsupportedLanguage   = &AppError{Code: CodeUnsupportedLanguage}
	ErrMalformedResponse     = &AppError{Code: CodeMalformedResponse}
	ErrAIRejected            = &AppError{Code: CodeAIRejected}
	ErrNetworkOffline        = &AppError{Code: CodeNetworkOffline}
	ErrNetworkTimeout        = &AppError{Code: CodeNetworkTimeout}
	ErrNetworkServerError    = &AppError{Code: CodeNetworkServerError}
	ErrQuotaExceeded         = &AppError{Code: CodeQuotaExceeded}
	ErrReadFailed            = &AppError{Code: CodeReadFailed}
	ErrWriteFailed           = &AppError{Code: CodeWriteFailed}
	ErrInvalidInput          = &AppError{Code: CodeInvalidInput}
	ErrInvalidSelection      = &AppError{Code: CodeInvalidSelection}
	ErrNoActiveTab           = &AppError{Code: CodeNoActiveTab}
	ErrScriptInjectionFailed = &AppError{Code: CodeScriptInjectionFailed}
	ErrCommunicationFailed   = &AppError{Code: CodeCommunicationFailed}
	ErrUnknown               = &AppError{Code: CodeUnknown}
)

// New builds an AppError. An empty message falls back to the user message.
func New(code Code, message string, cause error, ctx map[string]any) *AppError {
	if message == "" {
		message = code.UserMessage()
	}
	return &AppError{
		Code:      code,
		Message:   message,
		Context:   ctx,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

func (e *AppError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func (e *AppError) ErrorCode() string {
	return string(e.Code)
}

func (e *AppError) UserMessage() string {
	return e.Code.UserMessage()
}

func (e *AppError) InCategory(c Category) bool {
	return e.Code.Category() == c
}

// FromUnknown keeps AppErrors found anywhere in the chain and wraps
// everything else as UNKNOWN_ERROR.
func FromUnknown(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(CodeUnknown, err.Error(), err, nil)
}

// CodeOf returns the code of the first AppError in the chain, or CodeUnknown.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

func InCategory(err error, c Category) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.InCategory(c)
}

// Auth

func InvalidAPIKey(message, keyPrefix string) *AppError {
	var ctx map[string]any
	if keyPrefix != "" {
		ctx = map[string]any{"apiKeyPrefix": keyPrefix}
	}
	return New(CodeInvalidAPIKey, message, nil, ctx)
}

func NotAuthenticated() *AppError {
	return New(CodeNotAuthenticated, "", nil, nil)
}

// Translation

func TranslationFailed(cause error) *AppError {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return New(CodeTranslationFailed, msg, cause, nil)
}

func RateLimited(retryAfter time.Duration) *AppError {
	var ctx map[string]any
	if retryAfter > 0 {
		ctx = map[string]any{"retryAfterMs": retryAfter.Milliseconds()}
	}
	return New(CodeRateLimited, "", nil, ctx)
}

func InvalidImage(reason string) *AppError {
	return New(CodeInvalidImage, reason, nil, nil)
}

func UnsupportedLanguage(language string) *AppError {
	return New(CodeUnsupportedLanguage, fmt.Sprintf("Unsupported language: %s", language), nil,
		map[string]any{"language": language})
}

func MalformedResponse(detail string, cause error) *AppError {
	return New(CodeMalformedResponse, detail, cause, nil)
}

func AIRejected(reason string) *AppError {
	return New(CodeAIRejected, reason, nil, map[string]any{"reason": reason})
}

// Storage

func QuotaExceeded() *AppError {
	return New(CodeQuotaExceeded, "", nil, nil)
}

func ReadFailed(key string, cause error) *AppError {
	return New(CodeReadFailed, fmt.Sprintf("failed to read %q", key), cause, map[string]any{"key": key})
}

func WriteFailed(key string, cause error) *AppError {
	return New(CodeWriteFailed, fmt.Sprintf("failed to write %q", key), cause, map[string]any{"key": key})
}

// Validation

func InvalidInput(detail string, cause error) *AppError {
	return New(CodeInvalidInput, detail, cause, nil)
}

// Browser

func NoActiveTab() *AppError {
	return New(CodeNoActiveTab, "", nil, nil)
}

func ScriptInjectionFailed(cause error) *AppError {
	return New(CodeScriptInjectionFailed, "", cause, nil)
}

func CommunicationFailed(cause error) *AppError {
	return New(CodeCommunicationFailed, "", cause, nil)
}

// Network

func Offline(cause error) *AppError {
	return New(CodeNetworkOffline, "", cause, nil)
}

func Timeout(url string) *AppError {
	return New(CodeNetworkTimeout, "", nil, map[string]any{"url": url})
}

// Canceled reports a provider call abandoned by its caller. The cause stays
// in the chain, so errors.Is(err, context.Canceled) still holds.
func Canceled(url string, cause error) *AppError {
	return New(CodeTranslationFailed, "Translation was canceled.", cause, map[string]any{"url": url})
}

func ServerError(status int, url string) *AppError {
	return New(CodeNetworkServerError, fmt.Sprintf("server responded with status %d", status), nil,
		map[string]any{"status": status, "url": url})
}

package errors

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ErrorClass int

const (
	ClassInternal ErrorClass = iota
	ClassValidation
	ClassAuthentication
	ClassUnavailable
	ClassRateLimit
	ClassExternal
	ClassPrecondition
)

type ClassifiedError struct {
	Class         ErrorClass
	Code          Code
	InternalError error
	ClientMessage string
	OperationName string
	Metadata      map[string]any
}

// ErrorClassifier turns internal errors into logged, sanitized gRPC
// statuses. Only the user message of a code ever reaches the client.
type ErrorClassifier struct {
	logger *slog.Logger
}

func NewErrorClassifier(logger *slog.Logger) *ErrorClassifier {
	return &ErrorClassifier{logger: logger}
}

var errorPool = sync.Pool{
	New: func() any {
		return &ClassifiedError{Metadata: make(map[string]any, 4)}
	},
}

func (ec *ErrorClassifier) Classify(err error, operation string) *ClassifiedError {
	classified := errorPool.Get().(*ClassifiedError)
	classified.InternalError = err
	classified.OperationName = operation

	var appErr *AppError
	if !errors.As(err, &appErr) {
		classified.Code = CodeUnknown
		classified.Class = ClassInternal
		classified.ClientMessage = CodeUnknown.UserMessage()
		return classified
	}

	classified.Code = appErr.Code
	classified.ClientMessage = appErr.UserMessage()
	for k, v := range appErr.Context {
		classified.Metadata[k] = v
	}

	switch {
	case appErr.Code == CodeRateLimited:
		classified.Class = ClassRateLimit
	case appErr.Code == CodeNoActiveTab:
		classified.Class = ClassPrecondition
	case appErr.InCategory(CategoryValidation),
		appErr.Code == CodeInvalidImage,
		appErr.Code == CodeUnsupportedLanguage:
		classified.Class = ClassValidation
	case appErr.InCategory(CategoryAuth):
		classified.Class = ClassAuthentication
	case appErr.InCategory(CategoryNetwork), appErr.InCategory(CategoryBrowser):
		classified.Class = ClassUnavailable
	case appErr.InCategory(CategoryTranslation):
		classified.Class = ClassExternal
	default:
		classified.Class = ClassInternal
	}

	return classified
}

func (ec *ErrorClassifier) LogAndSanitize(ctx context.Context, classified *ClassifiedError) error {
	defer ec.putError(classified)

	ec.logger.ErrorContext(ctx, "operation failed",
		"operation", classified.OperationName,
		"error_class", classified.Class,
		"code", classified.Code,
		"internal_error", classified.InternalError.Error(),
		"metadata", classified.Metadata,
	)

	return ec.toGRPCError(classified)
}

func (ec *ErrorClassifier) toGRPCError(classified *ClassifiedError) error {
	var code codes.Code

	switch classified.Class {
	case ClassValidation:
		code = codes.InvalidArgument
	case ClassAuthentication:
		code = codes.Unauthenticated
	case ClassRateLimit:
		code = codes.ResourceExhausted
	case ClassUnavailable:
		code = codes.Unavailable
	case ClassPrecondition:
		code = codes.FailedPrecondition
	case ClassExternal:
		code = codes.Aborted
	default:
		code = codes.Internal
	}

	return status.Error(code, string(classified.Code)+": "+classified.ClientMessage)
}

func (ec *ErrorClassifier) putError(err *ClassifiedError) {
	err.InternalError = nil
	for k := range err.Metadata {
		delete(err.Metadata, k)
	}
	err.OperationName = ""
	err.Code = ""
	errorPool.Put(err)
}

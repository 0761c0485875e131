package interceptors

import (
	"context"
	"reflect"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc"

	app_errors "github.com/spounge-ai/rosetta/internal/errors"
)

// UnaryValidationInterceptor checks the validate tags of struct requests
// before the handler runs.
func UnaryValidationInterceptor(errorClassifier *app_errors.ErrorClassifier) grpc.UnaryServerInterceptor {
	validate := validator.New(validator.WithRequiredStructEnabled())

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if v := reflect.ValueOf(req); v.Kind() == reflect.Pointer && v.Elem().Kind() == reflect.Struct {
			if err := validate.StructCtx(ctx, req); err != nil {
				invalid := app_errors.InvalidInput(err.Error(), err)
				return nil, errorClassifier.LogAndSanitize(ctx, errorClassifier.Classify(invalid, info.FullMethod))
			}
		}
		return handler(ctx, req)
	}
}

package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/spounge-ai/rosetta/internal/domain"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
)

// TranslateImage checks its inputs and hands them to the provider adapter.
// Nothing reaches the provider unless the target language is known and the
// image is a data URL.
func TranslateImage(ctx context.Context, translator domain.TranslationService, imageDataURL, targetLanguage string) (domain.Translation, error) {
	ctx, span := tracer.Start(ctx, "TranslateImage")
	defer span.End()

	target, err := domain.LanguageFromCode(targetLanguage)
	if err != nil {
		return domain.Translation{}, app_errors.UnsupportedLanguage(targetLanguage)
	}
	image, err := domain.NewEncodedImage(imageDataURL)
	if err != nil {
		return domain.Translation{}, app_errors.InvalidImage("")
	}

	span.SetAttributes(
		attribute.String("translation.target", target.Code()),
		attribute.String("image.mime", image.MIMEType()),
	)
	return translator.TranslateImage(ctx, image, target)
}

// Package pipelines runs the translation flow started by TRANSLATE_IMAGE.
package pipelines

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/spounge-ai/rosetta/internal/domain"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
	"github.com/spounge-ai/rosetta/internal/infra/metrics"
	"github.com/spounge-ai/rosetta/internal/service"
)

var tracer = otel.Tracer("github.com/spounge-ai/rosetta/internal/pipelines")

// Toast titles shown to the user at the end of a run.
const (
	TitleTranslating      = "Translating..."
	TitleSuccess          = "Translation Success!"
	TitleAuthFailed       = "Authentication Failed"
	TitleNotAuthenticated = "Not Authenticated"
	TitlePreferencesError = "Preferences Error"
	TitleFailed           = "Translation Failed!"

	NotAuthenticatedHint = "Please set your API key in the extension settings."
)

// Step names, as recorded in metrics and spans.
const (
	StepCheckCredentials = "check_credentials"
	StepResolve          = "resolve_credential"
	StepPreferences      = "load_preferences"
	StepTranslate        = "invoke_provider"
	StepPersist          = "persist_result"
	StepMount            = "mount_result"
)

// Notifier shows progress toasts in one tab. Calls never fail from the
// pipeline's point of view; implementations log their own send errors.
type Notifier interface {
	Loading(ctx context.Context, tabID int, toastID, message string)
	Success(ctx context.Context, tabID int, toastID, message string)
	Error(ctx context.Context, tabID int, toastID, message, description string)
}

// ResultMounter opens the translation modal in the tab that asked for it.
type ResultMounter interface {
	MountTranslation(ctx context.Context, tabID int, t domain.Translation) error
}

// CredentialResolver picks the credential for one request.
type CredentialResolver interface {
	Resolve(ctx context.Context, set domain.CredentialSet) (domain.Credential, error)
}

// TranslationRequest is one TRANSLATE_IMAGE from a tab.
type TranslationRequest struct {
	TabID        int
	ImageDataURL string
}

// Deps are the collaborators of a TranslationPipeline.
type Deps struct {
	Credentials domain.CredentialRepository
	Resolver    CredentialResolver
	Preferences domain.PreferencesRepository
	Translators domain.TranslatorFactory
	History     domain.TranslationRepository
	Notifier    Notifier
	Mounter     ResultMounter
	Metrics     metrics.Recorder
	Logger      *slog.Logger
}

type TranslationPipeline struct {
	deps Deps
	now  func() time.Time
}

func NewTranslationPipeline(deps Deps) *TranslationPipeline {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Noop{}
	}
	return &TranslationPipeline{deps: deps, now: time.Now}
}

// Run executes the pipeline. Every failure is shown to the user under the
// run's toast id and returned unchanged. A failed history write or modal
// mount does not fail the run.
func (p *TranslationPipeline) Run(ctx context.Context, req TranslationRequest) (domain.Translation, error) {
	ctx, span := tracer.Start(ctx, "TranslationPipeline.Run")
	defer span.End()
	span.SetAttributes(attribute.Int("tab.id", req.TabID))

	start := p.now()
	toastID := fmt.Sprintf("translate-%d-%s", start.UnixMilli(), uuid.NewString())

	t, err := p.run(ctx, req, toastID)

	outcome := metrics.StatusSuccess
	if err != nil {
		outcome = errorOutcome(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	p.deps.Metrics.RecordPipelineRun(outcome, time.Since(start))
	return t, err
}

func (p *TranslationPipeline) run(ctx context.Context, req TranslationRequest, toastID string) (domain.Translation, error) {
	log := p.deps.Logger.With("tab_id", req.TabID, "toast_id", toastID)
	notify := p.deps.Notifier

	notify.Loading(ctx, req.TabID, toastID, TitleTranslating)

	set, err := p.checkCredentials(ctx)
	if err != nil {
		log.ErrorContext(ctx, "credential check failed", "error", err)
		if errors.Is(err, app_errors.ErrNotAuthenticated) {
			notify.Error(ctx, req.TabID, toastID, TitleNotAuthenticated, NotAuthenticatedHint)
		} else {
			notify.Error(ctx, req.TabID, toastID, TitleAuthFailed, err.Error())
		}
		return domain.Translation{}, err
	}

	cred, err := p.resolve(ctx, set)
	if err != nil {
		log.ErrorContext(ctx, "credential resolution failed", "error", err)
		notify.Error(ctx, req.TabID, toastID, TitleNotAuthenticated, NotAuthenticatedHint)
		return domain.Translation{}, err
	}

	prefs, err := p.loadPreferences(ctx)
	if err != nil {
		log.ErrorContext(ctx, "failed to load preferences", "error", err)
		notify.Error(ctx, req.TabID, toastID, TitlePreferencesError, err.Error())
		return domain.Translation{}, err
	}

	translation, err := p.translate(ctx, cred, prefs, req.ImageDataURL)
	if err != nil {
		log.ErrorContext(ctx, "translation failed", "provider", cred.Provider(), "error", err)
		notify.Error(ctx, req.TabID, toastID, TitleFailed, err.Error())
		return domain.Translation{}, err
	}

	p.persist(ctx, log, translation)

	notify.Success(ctx, req.TabID, toastID, TitleSuccess)
	p.mount(ctx, log, req.TabID, translation)

	log.InfoContext(ctx, "translation completed", "translation_id", translation.ID(), "provider", cred.Provider())
	return translation, nil
}

func (p *TranslationPipeline) checkCredentials(ctx context.Context) (set domain.CredentialSet, err error) {
	ctx, span := tracer.Start(ctx, StepCheckCredentials)
	timer := metrics.NewStepTimer(p.deps.Metrics, StepCheckCredentials)
	defer func() { endStep(span, timer, err) }()

	set, found, err := p.deps.Credentials.Get(ctx)
	if err != nil {
		return domain.CredentialSet{}, err
	}
	if !found {
		return domain.CredentialSet{}, app_errors.NotAuthenticated()
	}
	return set, nil
}

func (p *TranslationPipeline) resolve(ctx context.Context, set domain.CredentialSet) (cred domain.Credential, err error) {
	ctx, span := tracer.Start(ctx, StepResolve)
	timer := metrics.NewStepTimer(p.deps.Metrics, StepResolve)
	defer func() { endStep(span, timer, err) }()

	return p.deps.Resolver.Resolve(ctx, set)
}

func (p *TranslationPipeline) loadPreferences(ctx context.Context) (prefs domain.UserPreferences, err error) {
	ctx, span := tracer.Start(ctx, StepPreferences)
	timer := metrics.NewStepTimer(p.deps.Metrics, StepPreferences)
	defer func() { endStep(span, timer, err) }()

	prefs, found, err := p.deps.Preferences.Get(ctx)
	if err != nil {
		return domain.UserPreferences{}, err
	}
	if !found {
		return domain.DefaultPreferences(uuid.NewString()), nil
	}
	return prefs, nil
}

func (p *TranslationPipeline) translate(ctx context.Context, cred domain.Credential, prefs domain.UserPreferences, image string) (t domain.Translation, err error) {
	ctx, span := tracer.Start(ctx, StepTranslate)
	timer := metrics.NewStepTimer(p.deps.Metrics, StepTranslate)
	defer func() { endStep(span, timer, err) }()

	span.SetAttributes(
		attribute.String("provider", string(cred.Provider())),
		attribute.String("model", prefs.SelectedModel().ID()),
	)

	translator, err := p.deps.Translators.New(ctx, cred, prefs)
	if err != nil {
		return domain.Translation{}, err
	}
	return service.TranslateImage(ctx, translator, image, prefs.TargetLanguage().Code())
}

func (p *TranslationPipeline) persist(ctx context.Context, log *slog.Logger, t domain.Translation) {
	ctx, span := tracer.Start(ctx, StepPersist)
	timer := metrics.NewStepTimer(p.deps.Metrics, StepPersist)

	err := p.deps.History.Save(ctx, t)
	if err != nil {
		log.ErrorContext(ctx, "failed to save translation", "translation_id", t.ID(), "error", err)
	}
	endStep(span, timer, err)
}

func (p *TranslationPipeline) mount(ctx context.Context, log *slog.Logger, tabID int, t domain.Translation) {
	ctx, span := tracer.Start(ctx, StepMount)
	timer := metrics.NewStepTimer(p.deps.Metrics, StepMount)

	err := p.deps.Mounter.MountTranslation(ctx, tabID, t)
	if err != nil {
		log.WarnContext(ctx, "failed to mount translation modal", "error", err)
	}
	endStep(span, timer, err)
}

func endStep(span trace.Span, timer *metrics.StepTimer, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	timer.Done(err)
	span.End()
}

// errorOutcome labels a failed run by its error code.
func errorOutcome(err error) string {
	return string(app_errors.CodeOf(err))
}

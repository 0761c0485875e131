package persistence

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/spounge-ai/rosetta/internal/domain"
	"github.com/spounge-ai/rosetta/internal/infra/storage"
)

type segmentRecord struct {
	Text         *string `json:"text"         validate:"required"`
	LanguageCode *string `json:"languageCode" validate:"required"`
	LanguageName *string `json:"languageName" validate:"required"`
	Romanization *string `json:"romanization"`
}

type translationRecord struct {
	ID          *string         `json:"id"          validate:"required"`
	Original    []segmentRecord `json:"original"    validate:"required,dive"`
	Translated  []segmentRecord `json:"translated"  validate:"required,dive"`
	Description *string         `json:"description" validate:"required"`
	CreatedAt   *string         `json:"createdAt"   validate:"required"`
}

func segmentPropsOf(recs []segmentRecord) []domain.SegmentProps {
	out := make([]domain.SegmentProps, len(recs))
	for i, s := range recs {
		out[i] = domain.SegmentProps{
			Text:         *s.Text,
			LanguageCode: *s.LanguageCode,
			LanguageName: *s.LanguageName,
			Romanization: s.Romanization,
		}
	}
	return out
}

func (r translationRecord) props() domain.TranslationProps {
	return domain.TranslationProps{
		ID:          *r.ID,
		Original:    segmentPropsOf(r.Original),
		Translated:  segmentPropsOf(r.Translated),
		Description: *r.Description,
		CreatedAt:   *r.CreatedAt,
	}
}

// TranslationRepository keeps the history as one list under
// "translations", newest first.
type TranslationRepository struct {
	kv kv
}

func NewTranslationRepository(store storage.Store, logger *slog.Logger) *TranslationRepository {
	return &TranslationRepository{kv: kv{store: store, logger: logger}}
}

// all returns every entry that still has the stored shape. Entries that do
// not are skipped and dropped on the next write.
func (r *TranslationRepository) all(ctx context.Context) ([]domain.TranslationProps, error) {
	var raw []json.RawMessage
	found, decodeErr, err := r.kv.read(ctx, KeyTranslations, &raw)
	if err != nil || !found {
		return nil, err
	}
	if decodeErr != nil {
		r.kv.logger.WarnContext(ctx, "translation history is not a list, ignoring it", "error", decodeErr)
		return nil, nil
	}

	items := make([]domain.TranslationProps, 0, len(raw))
	for _, entry := range raw {
		var rec translationRecord
		if json.Unmarshal(entry, &rec) != nil || recordValidator.Struct(rec) != nil {
			continue
		}
		items = append(items, rec.props())
	}
	return items, nil
}

// Save replaces an entry with the same id in place, otherwise prepends.
func (r *TranslationRepository) Save(ctx context.Context, t domain.Translation) error {
	items, err := r.all(ctx)
	if err != nil {
		return err
	}
	props := t.Props()
	if idx := slices.IndexFunc(items, func(p domain.TranslationProps) bool { return p.ID == props.ID }); idx >= 0 {
		items[idx] = props
	} else {
		items = slices.Insert(items, 0, props)
	}
	return r.kv.write(ctx, KeyTranslations, items)
}

func (r *TranslationRepository) Get(ctx context.Context, id string) (domain.Translation, bool, error) {
	items, err := r.all(ctx)
	if err != nil {
		return domain.Translation{}, false, err
	}
	idx := slices.IndexFunc(items, func(p domain.TranslationProps) bool { return p.ID == id })
	if idx < 0 {
		return domain.Translation{}, false, nil
	}
	t, err := domain.TranslationFromProps(items[idx])
	if err != nil {
		return domain.Translation{}, false, nil
	}
	return t, true, nil
}

// GetAll returns the history newest first, skipping corrupted entries.
func (r *TranslationRepository) GetAll(ctx context.Context) ([]domain.Translation, error) {
	items, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Translation, 0, len(items))
	for _, p := range items {
		t, err := domain.TranslationFromProps(p)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *TranslationRepository) Delete(ctx context.Context, id string) error {
	items, err := r.all(ctx)
	if err != nil {
		return err
	}
	items = slices.DeleteFunc(items, func(p domain.TranslationProps) bool { return p.ID == id })
	return r.kv.write(ctx, KeyTranslations, items)
}

func (r *TranslationRepository) Clear(ctx context.Context) error {
	return r.kv.remove(ctx, KeyTranslations)
}

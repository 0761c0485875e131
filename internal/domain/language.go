package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	LanguageUnknown = "unknown"
	LanguageNumber  = "number"
	LanguageSymbol  = "symbol"
)

var ErrEmptyLanguageCode = errors.New("Language code must be a non-empty string")

var languageNames = map[string]string{
	"af-ZA":  "Afrikaans",
	"am-ET":  "Amharic",
	"ar-SA":  "Arabic",
	"bg-BG":  "Bulgarian",
	"bn-IN":  "Bengali",
	"ca-ES":  "Catalan",
	"cs-CZ":  "Czech",
	"da-DK":  "Danish",
	"de-DE":  "German",
	"el-GR":  "Greek",
	"en-US":  "English",
	"es-ES":  "Spanish",
	"et-EE":  "Estonian",
	"fa-IR":  "Persian",
	"fi-FI":  "Finnish",
	"fil-PH": "Filipino",
	"fr-FR":  "French",
	"gu-IN":  "Gujarati",
	"he-IL":  "Hebrew",
	"hi-IN":  "Hindi",
	"hr-HR":  "Croatian",
	"hu-HU":  "Hungarian",
	"id-ID":  "Indonesian",
	"it-IT":  "Italian",
	"ja-JP":  "Japanese",
	"kn-IN":  "Kannada",
	"ko-KR":  "Korean",
	"lt-LV":  "Lithuanian",
	"lv-LV":  "Latvian",
	"ml-IN":  "Malayalam",
	"mr-IN":  "Marathi",
	"ms-MY":  "Malay",
	"nl-NL":  "Dutch",
	"no-NO":  "Norwegian",
	"pa-IN":  "Punjabi",
	"pl-PL":  "Polish",
	"pt-PT":  "Portuguese",
	"ro-RO":  "Romanian",
	"ru-RU":  "Russian",
	"sk-SK":  "Slovak",
	"sl-SI":  "Slovenian",
	"sv-SE":  "Swedish",
	"sw-KE":  "Swahili",
	"ta-IN":  "Tamil",
	"te-IN":  "Telugu",
	"th-TH":  "Thai",
	"tl-PH":  "Tagalog",
	"tr-TR":  "Turkish",
	"uk-UA":  "Ukrainian",
	"vi-VN":  "Vietnamese",
	"zh-CN":  "Chinese (Simplified)",
	"zh-TW":  "Chinese (Traditional)",

	"ar": "Arabic",
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"hi": "Hindi",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"pt": "Portuguese",
	"ru": "Russian",
	"th": "Thai",
	"vi": "Vietnamese",
	"zh": "Chinese",

	LanguageUnknown: "Unknown",
	LanguageNumber:  "Number",
	LanguageSymbol:  "Symbol",
}

// Language is a code from the known language table and its English name.
type Language struct {
	code string
	name string
}

func LanguageFromCode(raw string) (Language, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return Language{}, ErrEmptyLanguageCode
	}
	name, ok := languageNames[code]
	if !ok {
		return Language{}, fmt.Errorf("Unknown language code: %q", code)
	}
	return Language{code: code, name: name}, nil
}

// MustLanguage is for codes known at compile time.
func MustLanguage(code string) Language {
	l, err := LanguageFromCode(code)
	if err != nil {
		panic(err)
	}
	return l
}

func UnknownLanguage() Language {
	return MustLanguage(LanguageUnknown)
}

func (l Language) Code() string { return l.code }
func (l Language) Name() string { return l.name }

func (l Language) IsZero() bool {
	return l.code == ""
}

// IsSelectable reports whether users may pick the language as a target.
func (l Language) IsSelectable() bool {
	switch l.code {
	case LanguageUnknown, LanguageNumber, LanguageSymbol:
		return false
	}
	return !l.IsZero()
}

// SelectableLanguages returns the target languages in code order.
func SelectableLanguages() []Language {
	out := make([]Language, 0, len(languageNames))
	for code, name := range languageNames {
		l := Language{code: code, name: name}
		if l.IsSelectable() && strings.Contains(code, "-") {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].code < out[j].code })
	return out
}

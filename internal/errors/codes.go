package errors

import "strings"

// Code identifies a failure kind. Codes are stable across contexts and are
// what callers branch on.
type Code string

const (
	CodeInvalidAPIKey    Code = "AUTH_INVALID_API_KEY"
	CodeNotAuthenticated Code = "AUTH_NOT_AUTHENTICATED"

	CodeTranslationFailed   Code = "TRANSLATION_FAILED"
	CodeRateLimited         Code = "TRANSLATION_RATE_LIMITED"
	CodeInvalidImage        Code = "TRANSLATION_INVALID_IMAGE"
	CodeUnsupportedLanguage Code = "TRANSLATION_UNSUPPORTED_LANGUAGE"
	CodeMalformedResponse   Code = "TRANSLATION_MALFORMED_RESPONSE"
	CodeAIRejected          Code = "TRANSLATION_AI_REJECTED"

	CodeNetworkOffline     Code = "NETWORK_OFFLINE"
	CodeNetworkTimeout     Code = "NETWORK_TIMEOUT"
	CodeNetworkServerError Code = "NETWORK_SERVER_ERROR"

	CodeQuotaExceeded Code = "STORAGE_QUOTA_EXCEEDED"
	CodeReadFailed    Code = "STORAGE_READ_FAILED"
	CodeWriteFailed   Code = "STORAGE_WRITE_FAILED"

	CodeInvalidInput     Code = "VALIDATION_INVALID_INPUT"
	CodeInvalidSelection Code = "VALIDATION_INVALID_SELECTION"

	CodeNoActiveTab           Code = "BROWSER_NO_ACTIVE_TAB"
	CodeScriptInjectionFailed Code = "BROWSER_SCRIPT_INJECTION_FAILED"
	CodeCommunicationFailed   Code = "BROWSER_COMMUNICATION_FAILED"

	CodeUnknown Code = "UNKNOWN_ERROR"
)

// Category is the prefix shared by related codes.
type Category string

const (
	CategoryAuth        Category = "AUTH"
	CategoryTranslation Category = "TRANSLATION"
	CategoryNetwork     Category = "NETWORK"
	CategoryStorage     Category = "STORAGE"
	CategoryValidation  Category = "VALIDATION"
	CategoryBrowser     Category = "BROWSER"
)

var userMessages = map[Code]string{
	CodeInvalidAPIKey:         "Invalid API key. Please check your key and try again.",
	CodeNotAuthenticated:      "Please log in to use this feature.",
	CodeTranslationFailed:     "Translation failed. Please try again.",
	CodeRateLimited:           "Too many requests. Please wait a moment.",
	CodeInvalidImage:          "Could not process the image.",
	CodeUnsupportedLanguage:   "This language is not supported.",
	CodeMalformedResponse:     "Received an unexpected response from the translation service.",
	CodeAIRejected:            "The AI could not process this image.",
	CodeNetworkOffline:        "No internet connection.",
	CodeNetworkTimeout:        "Request timed out. Please try again.",
	CodeNetworkServerError:    "Server error. Please try again later.",
	CodeQuotaExceeded:         "Storage is full. Please clear some history.",
	CodeReadFailed:            "Could not load data.",
	CodeWriteFailed:           "Could not save data.",
	CodeInvalidInput:          "Invalid input provided.",
	CodeInvalidSelection:      "Please select an area to translate.",
	CodeNoActiveTab:           "Unable to find an active browser tab.",
	CodeScriptInjectionFailed: "Failed to inject necessary scripts into the page.",
	CodeCommunicationFailed:   "Failed to communicate with the page.",
	CodeUnknown:               "An unexpected error occurred.",
}

// UserMessage returns the end-user text for a code.
func (c Code) UserMessage() string {
	if msg, ok := userMessages[c]; ok {
		return msg
	}
	return userMessages[CodeUnknown]
}

func (c Code) Category() Category {
	head, _, _ := strings.Cut(string(c), "_")
	return Category(head)
}

func (c Code) String() string {
	return string(c)
}

// Codes lists every known code.
func Codes() []Code {
	out := make([]Code, 0, len(userMessages))
	for c := range userMessages {
		out = append(out, c)
	}
	return out
}

package llm

import "strings"

const NoTextFound = "NO_TEXT_FOUND"

const promptTemplate = `TASK: exhaustive OCR of the attached image, then translation, returned as one JSON object.

Extract every piece of visible text: headings, labels, buttons, captions, numbers, timestamps, navigation items and watermarks. Never skip text because it looks small or unimportant. Never invent text.

Return exactly one JSON object and nothing else. No markdown fences, no prose, no extra keys.

Envelope:
- success: {"success": true, "data": <Data>}
- failure: {"success": false, "error": "<message>"}
Exactly one of "data" and "error" is present.

Fail with success=false when:
- the image contains no human-readable text: error = "NO_TEXT_FOUND"
- the image is unreadable: a short error
- {{TARGET}} cannot be resolved to a BCP-47 tag with a region: a short error

Data:
{
  "originalText":   {"contents": [Item, ...]},
  "translatedText": {"contents": [Item, ...]},
  "description":    "<1-3 sentences>"
}
Item: {"text": string, "languageBcp47Code": string, "language": string, "romanization": string or null}

originalText rules:
- Items follow natural reading order. Contiguous lines in the same language form one item.
- text is the exact extracted text, trimmed, with meaningful line breaks kept as \n.
- languageBcp47Code carries a region (en-US, ja-JP, id-ID). Use "number" for purely numeric text, "symbol" for punctuation or emoji only, "unknown" when the language cannot be identified. Never use "und".
- language is the English name of the language, or "Number", "Symbol", "Unknown" for the special codes.
- romanization is set only when the source script is non-Latin and a common romanization exists, otherwise null.

translatedText rules:
- Index-aligned with originalText.
- text is a natural translation into {{TARGET}}. Copy the source when it is already in {{TARGET}}.
- languageBcp47Code is the tag for {{TARGET}} and language is {{TARGET}}.
- romanization is set only when the target script is non-Latin, otherwise null.

description is a short summary, written in {{TARGET}}, of what the text is and where it appears.

Output JSON only.`

// BuildPrompt returns the system instruction for translating into the
// language named target.
func BuildPrompt(target string) string {
	return strings.ReplaceAll(promptTemplate, "{{TARGET}}", target)
}

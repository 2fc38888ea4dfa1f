package translator

import (
	"regexp"
	"strings"
)

// languageNames maps language codes to the names used in prompts.
// Unknown codes pass through unchanged.
var languageNames = map[string]string{
	"en": "English",
	"ja": "Japanese",
	"zh": "Chinese",
	"ko": "Korean",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

func buildSystemPrompt(sourceLang, targetLang string) string {
	return "You are a world-class translator and will translate " +
		languageName(sourceLang) + " text to " + languageName(targetLang) + "."
}

func buildTranslatePrompt(sourceLang, targetLang, text string) string {
	src := languageName(sourceLang)
	dst := languageName(targetLang)
	return "This is a " + src + " to " + dst + ", Literal Translation task.\n" +
		"Please provide the " + dst + " translation for the next sentences.\n" +
		"You must not include any chat messages to the user in your response.\n" +
		"---\n" +
		preprocess(text)
}

func buildReviewPrompt(targetLang, translation string) string {
	dst := languageName(targetLang)
	return "Review the following " + dst + " translation and list any mistranslations, " +
		"omissions, or unnatural phrasing as short bullet points.\n" +
		"---\n" +
		translation
}

func buildRefinePrompt(targetLang, translation, review string) string {
	dst := languageName(targetLang)
	return "Rewrite the " + dst + " translation applying the review notes. " +
		"Respond with the corrected translation only.\n" +
		"Translation:\n" + translation + "\n" +
		"Review notes:\n" + review
}

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// preprocess normalizes unit text before it reaches a model: outer
// newlines trimmed, runs of blank lines collapsed, and common leading
// indentation removed.
func preprocess(text string) string {
	text = strings.Trim(text, "\n")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return dedent(text)
}

// dedent strips the longest common leading whitespace from every
// non-blank line.
func dedent(text string) string {
	lines := strings.Split(text, "\n")

	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix = indent
			first = false
			continue
		}
		for !strings.HasPrefix(indent, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
		if prefix == "" {
			return text
		}
	}
	if prefix == "" {
		return text
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}

// postprocess strips chat artifacts a model may wrap around the
// translation: code fences and outer whitespace.
func postprocess(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		if idx := strings.Index(response, "\n"); idx >= 0 {
			response = response[idx+1:]
		} else {
			response = strings.TrimPrefix(response, "```")
		}
		response = strings.TrimSuffix(strings.TrimSpace(response), "```")
		response = strings.TrimSpace(response)
	}
	return response
}

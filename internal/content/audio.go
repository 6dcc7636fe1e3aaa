package content

import (
	"regexp"
	"strings"
)

// Text-to-speech engines read exactly what they are given, so anything that
// only makes sense on a screen gets stripped or softened before synthesis.

var (
	urlRe        = regexp.MustCompile(`(?i)https?://[^\s]+|www\.[^\s]+`)
	visualCueRe  = regexp.MustCompile(`(?i)click here|tap here|see the link below|follow the link|read more\s*[»>.]*|continue reading[^\n]*`)
	annotationRe = regexp.MustCompile(`(?i)[(\[](?:photo|image|figure|chart|graph|source|via|credit|click to enlarge)[^)\]]*[)\]]`)
	bulletRe     = regexp.MustCompile(`(?m)^\s*[-*•◦▪‣]\s+`)
	spacesRe     = regexp.MustCompile(`[ \t]{2,}`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	punctRunRe   = regexp.MustCompile(`([,;])\s*([,;])+`)
)

var symbolReplacer = strings.NewReplacer(
	"★", ", ",
	"☆", ", ",
	"●", ", ",
	"○", ", ",
	"■", ", ",
	"□", ", ",
	"▼", ", ",
	"▲", ", ",
	"→", ", ",
	"⇒", ", ",
	"←", ", ",
	"⇐", ", ",
	"|", ", ",
)

// PrepareForSpeech rewrites text for listening: URLs become "(link)",
// visual-only instructions and media annotations disappear, decorative
// symbols and bullets turn into pauses, and whitespace collapses.
func PrepareForSpeech(text string) string {
	if text == "" {
		return text
	}

	text = visualCueRe.ReplaceAllString(text, "")
	text = urlRe.ReplaceAllString(text, "(link)")
	text = annotationRe.ReplaceAllString(text, "")
	text = symbolReplacer.Replace(text)
	text = bulletRe.ReplaceAllString(text, "")
	text = punctRunRe.ReplaceAllString(text, "$1 ")
	text = spacesRe.ReplaceAllString(text, " ")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

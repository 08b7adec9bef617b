package epub

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockTags is the set of tags that insert a line break during extraction.
// Two block elements' text is never joined without at least one separator,
// so a pattern cannot falsely match across a paragraph boundary.
var blockTags = map[atom.Atom]bool{
	atom.P:          true,
	atom.Br:         true,
	atom.Div:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Li:         true,
	atom.Tr:         true,
	atom.Td:         true,
	atom.Blockquote: true,
	atom.Hr:         true,
	atom.Title:      true,
}

// skipTags is the set of tags whose content is not text.
var skipTags = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
}

var selfClosingSkipTagPattern = regexp.MustCompile(`(?is)<(script|style)\b([^>]*)/>`)

// normalizeSelfClosingSkipTags expands self-closing <script/> and <style/>
// so the tokenizer's raw-text handling does not swallow following content.
func normalizeSelfClosingSkipTags(data []byte) []byte {
	if !selfClosingSkipTagPattern.Match(data) {
		return data
	}
	return selfClosingSkipTagPattern.ReplaceAll(data, []byte(`<$1$2></$1>`))
}

// ExtractText extracts the plain text content from one markup document.
// Tags are stripped, script/style content is skipped, character entities are
// decoded by the tokenizer, and whitespace runs collapse to single spaces.
//
// Extraction never fails: the tokenizer recovers from malformed markup by
// skipping to the next tag boundary, and on an unrecoverable tokenizer error
// the text accumulated so far is returned. One broken fragment must not cost
// the whole file.
func ExtractText(data []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(normalizeSelfClosingSkipTags(data)))

	var buf strings.Builder
	skipDepth := 0 // depth inside script/style
	lastWasNewline := true
	lastWasSpace := false

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; either way, what we have is the text.
			return strings.TrimSpace(buf.String())

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := tokenizer.TagName()
			a := atom.Lookup(tn)
			if skipTags[a] {
				skipDepth++
				continue
			}
			if skipDepth > 0 {
				continue
			}
			if blockTags[a] && buf.Len() > 0 && !lastWasNewline {
				buf.WriteByte('\n')
				lastWasNewline = true
				lastWasSpace = false
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			a := atom.Lookup(tn)
			if skipTags[a] && skipDepth > 0 {
				skipDepth--
				continue
			}
			if skipDepth > 0 {
				continue
			}
			if blockTags[a] && buf.Len() > 0 && !lastWasNewline {
				buf.WriteByte('\n')
				lastWasNewline = true
				lastWasSpace = false
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			raw := string(tokenizer.Text())
			text := collapseWhitespace(raw)
			if text == "" {
				// Whitespace-only token between inline elements still
				// separates words, but a whitespace run split across
				// tokens yields one space, not one per token.
				if raw != "" && buf.Len() > 0 && !lastWasNewline && !lastWasSpace {
					buf.WriteByte(' ')
					lastWasSpace = true
				}
				continue
			}
			if (lastWasSpace || lastWasNewline) && strings.HasPrefix(text, " ") {
				text = text[1:]
			}
			buf.WriteString(text)
			lastWasNewline = false
			lastWasSpace = strings.HasSuffix(text, " ")
		}
	}
}

// collapseWhitespace replaces runs of whitespace with a single space.
// Returns "" if the input is all whitespace. A leading or trailing run is
// preserved as one space so inter-element spacing survives.
func collapseWhitespace(s string) string {
	var buf strings.Builder
	inSpace := false
	hasNonSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			inSpace = true
		} else {
			if inSpace && buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteRune(r)
			inSpace = false
			hasNonSpace = true
		}
	}
	if !hasNonSpace {
		return ""
	}
	result := buf.String()
	if isWhitespace(rune(s[0])) {
		result = " " + result
	}
	if inSpace {
		result = result + " "
	}
	return result
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

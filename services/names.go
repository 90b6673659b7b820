package services

import (
	"strings"
	"unicode"
)

// NameParser guesses a person's first and last name from a result title.
// Implementations return empty strings when nothing looks like a name.
type NameParser interface {
	ParseName(title string) (first, last string)
}

// TitleNameParser handles the common "First Last - Role | Company" shapes
// of profile titles. It is a heuristic and will miss or misread some.
type TitleNameParser struct{}

// nameSeparators end the leading name segment of a title.
var nameSeparators = []string{" - ", " | ", " – ", " — ", ",", ":", " at ", " (", " · "}

// nonNameWords rule a segment out as a name when any token matches.
var nonNameWords = map[string]bool{
	"about": true, "agent": true, "agents": true, "best": true, "broker": true,
	"city": true, "company": true, "contact": true, "directory": true, "estate": true,
	"find": true, "group": true, "home": true, "homes": true, "inc": true,
	"jobs": true, "linkedin": true, "llc": true, "ltd": true, "new": true,
	"office": true, "our": true, "page": true, "profile": true, "profiles": true,
	"real": true, "realtor": true, "realtors": true, "search": true, "services": true,
	"team": true, "the": true, "top": true, "us": true, "welcome": true,
}

func (TitleNameParser) ParseName(title string) (string, string) {
	title = strings.TrimSpace(title)

	for _, suffix := range []string{" | LinkedIn", "- LinkedIn", " | Facebook"} {
		if idx := strings.LastIndex(title, suffix); idx != -1 {
			title = title[:idx]
		}
	}

	head := title
	for _, sep := range nameSeparators {
		if idx := strings.Index(head, sep); idx != -1 {
			head = head[:idx]
		}
	}

	words := strings.Fields(head)
	if len(words) < 2 || len(words) > 3 {
		return "", ""
	}
	for _, w := range words {
		if !nameLike(w) || nonNameWords[strings.ToLower(strings.Trim(w, "."))] {
			return "", ""
		}
	}
	first, last := words[0], words[len(words)-1]
	if strings.HasSuffix(first, ".") || strings.HasSuffix(last, ".") {
		return "", ""
	}
	return first, last
}

// nameLike accepts capitalised alphabetic words, allowing inner
// apostrophes and hyphens ("O'Neil", "Smith-Jones") and a middle initial.
func nameLike(w string) bool {
	runes := []rune(w)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return false
	}
	if len(runes) == 2 && runes[1] == '.' {
		return true
	}
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r):
		case (r == '\'' || r == '-' || r == '’') && i > 0 && i < len(runes)-1:
		default:
			return false
		}
	}
	return true
}

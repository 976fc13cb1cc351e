package urlnorm

import (
	"strings"
	"unicode"
)

// latinConfusables maps characters from non-Latin scripts to the common Latin
// letter they visually impersonate. The set covers the Cyrillic and Greek
// lookalikes seen in homograph phishing domains; it is intentionally small
// and keyed on lowercase forms since hosts are folded before analysis.
var latinConfusables = map[rune]rune{
	// Cyrillic
	'а': 'a', // U+0430
	'е': 'e', // U+0435
	'о': 'o', // U+043E
	'р': 'p', // U+0440
	'с': 'c', // U+0441
	'х': 'x', // U+0445
	'у': 'y', // U+0443
	'і': 'i', // U+0456
	'ј': 'j', // U+0458
	'ѕ': 's', // U+0455
	'ԁ': 'd', // U+0501
	'һ': 'h', // U+04BB
	'ԛ': 'q', // U+051B
	'ԝ': 'w', // U+051D
	// Greek
	'α': 'a', // U+03B1
	'ε': 'e', // U+03B5
	'ι': 'i', // U+03B9
	'κ': 'k', // U+03BA
	'ν': 'v', // U+03BD
	'ο': 'o', // U+03BF
	'ρ': 'p', // U+03C1
	'υ': 'u', // U+03C5
	'χ': 'x', // U+03C7
}

// IsLatinConfusable reports whether r is a known non-Latin lookalike of a
// common Latin letter.
func IsLatinConfusable(r rune) bool {
	_, ok := latinConfusables[r]
	return ok
}

// MixedScriptConfusable reports whether any label of the decoded host mixes
// characters from more than one script while containing at least one
// confusable of a Latin letter. Single-script internationalized hosts
// (e.g. fully Cyrillic) are not flagged; "pаypal.com" with a Cyrillic а is.
func MixedScriptConfusable(host string) bool {
	for _, label := range strings.Split(host, ".") {
		if labelMixedScriptConfusable(label) {
			return true
		}
	}
	return false
}

func labelMixedScriptConfusable(label string) bool {
	var hasLatin, hasCyrillic, hasGreek, hasConfusable bool
	for _, r := range label {
		switch {
		case unicode.Is(unicode.Latin, r):
			hasLatin = true
		case unicode.Is(unicode.Cyrillic, r):
			hasCyrillic = true
		case unicode.Is(unicode.Greek, r):
			hasGreek = true
		}
		if IsLatinConfusable(r) {
			hasConfusable = true
		}
	}
	scripts := 0
	for _, present := range []bool{hasLatin, hasCyrillic, hasGreek} {
		if present {
			scripts++
		}
	}
	return scripts > 1 && hasConfusable
}

// maxHostLen is the RFC 1035 limit on a full host name.
const maxHostLen = 253

// HostSafe reports whether a decoded host passes the unicode-security
// screen: within length limits, no empty labels, labels made of letters,
// digits, and hyphens only, and no mixed-script confusable labels.
func HostSafe(host string) bool {
	if host == "" || len(host) > maxHostLen {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		cleaned := strings.ReplaceAll(label, "-", "")
		if cleaned == "" {
			return false
		}
		for _, r := range cleaned {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return false
			}
		}
		if labelMixedScriptConfusable(label) {
			return false
		}
	}
	return true
}

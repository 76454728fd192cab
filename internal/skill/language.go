package skill

import "strings"

// tagFamilies groups the code fence tags that count as one declared language.
var tagFamilies = [][]string{
	{"typescript", "ts", "javascript", "js"},
	{"python", "py"},
}

// familyOf returns the tag family containing lang, or nil for an unknown
// language.
func familyOf(lang string) []string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, family := range tagFamilies {
		for _, member := range family {
			if member == lang {
				return family
			}
		}
	}
	return nil
}

// KnownLanguage reports whether lang belongs to a supported tag family.
func KnownLanguage(lang string) bool {
	return familyOf(lang) != nil
}

// MatchesLanguage reports whether a code fence tag belongs to the declared
// language's tag family. A declared language like "js" accepts any member of
// the typescript family.
func MatchesLanguage(declared, tag string) bool {
	family := familyOf(declared)
	if family == nil {
		return false
	}
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, member := range family {
		if member == tag {
			return true
		}
	}
	return false
}

package listing

import (
	"regexp"
	"strings"
)

// Keyword tables shared by the parser's vagueness check and the identifier's
// title tier. All matching happens against normalized (NFKC, lowercased)
// titles.

var defectKeywords = []string{
	"for parts", "parts only", "no core", "no chip", "no gpu", "no cpu",
	"not working", "broken", "dead", "as-is", "as is", "defective",
	"cracked screen", "water damage", "won't turn on", "doesnt work",
	"doesn't work", "for repair", "needs repair",
}

var vagueKeywords = []string{
	"lot", "bundle", "misc", "random", "various", "assorted",
	"storage tower", "gaming tower", "shelf", "rack", "organizer",
	"holder", "stand", "furniture", "decor", "vintage", "antique",
}

var knownBrands = []string{
	"nvidia", "amd", "intel", "apple", "samsung", "sony", "microsoft",
	"nintendo", "asus", "msi", "gigabyte", "evga", "zotac", "corsair",
	"dell", "hp", "lenovo", "logitech", "playstation", "xbox",
	"iphone", "ipad", "macbook", "galaxy", "silver eagle", "gold eagle",
	"morgan dollar", "peace dollar",
}

var modelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(rtx|gtx|rx)\s*\d{3,4}(\s*(ti|xt))?\b`),
	regexp.MustCompile(`\bi[3579][-\s]*\d{4,5}[a-z]*\b`),
	regexp.MustCompile(`\bryzen\s*[3579](\s*\d{4}[a-z]*)?\b`),
	regexp.MustCompile(`\bswitch(\s*(oled|lite))?\b`),
	regexp.MustCompile(`\bps[45](\s*pro)?\b`),
	regexp.MustCompile(`\bxbox\s*(one|series)(\s*[xs])?\b`),
	regexp.MustCompile(`\biphone\s*\d{1,2}(\s*pro)?(\s*max)?\b`),
	regexp.MustCompile(`\bipad\s*(pro|air|mini)?(\s*\d+)?\b`),
	regexp.MustCompile(`\bgalaxy\s*s\d{2}(\s*ultra)?\b`),
	regexp.MustCompile(`\b\d+\s*(oz|gram|g)\s*(silver|gold)\b`),
	regexp.MustCompile(`\b\d{3,4}\s*(gb|tb)\b`),
}

var storagePattern = regexp.MustCompile(`\b(\d+)\s*(gb|tb)\b`)

// MatchDefect returns the first defect/for-parts keyword found in the
// normalized text, or "" when none match.
func MatchDefect(normalized string) string {
	for _, kw := range defectKeywords {
		if strings.Contains(normalized, kw) {
			return kw
		}
	}
	return ""
}

// MatchVague returns the first bundle/lot-type keyword found, or "".
func MatchVague(normalized string) string {
	for _, kw := range vagueKeywords {
		if containsWord(normalized, kw) {
			return kw
		}
	}
	return ""
}

// MatchBrand returns the first known brand found in the normalized text.
func MatchBrand(normalized string) string {
	for _, brand := range knownBrands {
		if strings.Contains(normalized, brand) {
			return brand
		}
	}
	return ""
}

// MatchModel returns the first model-like token found in the normalized text.
func MatchModel(normalized string) string {
	for _, p := range modelPatterns {
		if m := p.FindString(normalized); m != "" {
			return strings.Join(strings.Fields(m), " ")
		}
	}
	return ""
}

// MatchStorage extracts a storage capacity spec like "512gb", or "".
func MatchStorage(normalized string) string {
	m := storagePattern.FindStringSubmatch(normalized)
	if m == nil {
		return ""
	}
	return m[1] + strings.ToUpper(m[2])
}

// HasSpecificProduct reports whether the text names something searchable:
// a recognizable brand or a model-like token.
func HasSpecificProduct(normalized string) bool {
	return MatchBrand(normalized) != "" || MatchModel(normalized) != ""
}

// containsWord matches kw on word boundaries so "lot" doesn't hit "pilot".
func containsWord(s, kw string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		leftOK := start == 0 || !isWordByte(s[start-1])
		rightOK := end == len(s) || !isWordByte(s[end])
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

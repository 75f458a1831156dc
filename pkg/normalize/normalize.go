// Package normalize turns raw scraped identity strings into canonical
// comparison keys. Every function is pure and total: empty input yields "",
// and applying any normalizer twice equals applying it once.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// Normalizer is a function that normalizes a string value.
type Normalizer func(string) string

// registry holds all registered normalizers.
var registry = make(map[string]Normalizer)

func init() {
	Register("name", Name)
	Register("website", Website)
	Register("address", addressKey)
	Register("city", City)
	Register("state", State)
	Register("zip", ZipCode)
	Register("lowercase", strings.ToLower)
	Register("trim", strings.TrimSpace)
}

// Register adds a normalizer to the registry.
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name.
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value. Unknown names pass the value
// through unchanged.
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// credentialTokens are professional credentials that follow provider names.
// Listed post-punctuation: "pa-c" is matched as "pac", "m.d." as "md".
var credentialTokens = []string{
	"md", "do", "phd", "faafp", "facp", "facep", "np", "pac", "dnp", "mph", "mba",
}

// genericNameWords are domain-generic words and phrases that carry no
// identity: nearly every record contains some subset of them. Longer phrases
// are listed first so "direct primary care" is stripped before "primary care".
var genericNameWords = []string{
	"direct primary care",
	"primary care",
	"family medicine",
	"internal medicine",
	"healthcare",
	"wellness",
	"physician",
	"practice",
	"medical",
	"clinic",
	"doctor",
	"health",
	"dpc",
	"dr",
}

// streetSuffixWords are street-type suffixes that directories abbreviate
// inconsistently; both the long and short forms are stripped.
var streetSuffixWords = map[string]bool{
	"street": true, "st": true,
	"avenue": true, "ave": true,
	"road": true, "rd": true,
	"drive": true, "dr": true,
	"boulevard": true, "blvd": true,
	"lane": true, "ln": true,
	"court": true, "ct": true,
	"way": true,
	"place": true, "pl": true,
}

var (
	namePunctRe    = regexp.MustCompile(`[.,\-']`)
	addressPunctRe = regexp.MustCompile(`[.,#]`)
	spaceRe        = regexp.MustCompile(`\s+`)
)

var genericNameRes = buildWordPatterns(append(append([]string{}, credentialTokens...), genericNameWords...))

func buildWordPatterns(words []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		res = append(res, regexp.MustCompile(`\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return res
}

// Name canonicalizes a provider or practice name: lowercase, punctuation
// removed, credential and domain-generic tokens stripped on whole-word
// boundaries, whitespace collapsed.
func Name(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	// Punctuation goes first so "m.d." and "pa-c" become plain tokens the
	// word patterns can see.
	s = namePunctRe.ReplaceAllString(s, "")
	s = collapse(s)

	for _, re := range genericNameRes {
		s = re.ReplaceAllString(s, " ")
	}

	return collapse(s)
}

// Website canonicalizes a website URL: lowercase, scheme and leading "www."
// stripped, a single trailing slash removed.
func Website(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimSuffix(s, "/")
	return s
}

// Address canonicalizes a full street+city+state+zip into one comparison key.
func Address(street, city, state, zip string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{street, city, state, zip} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return addressKey(strings.Join(parts, " "))
}

func addressKey(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	s = addressPunctRe.ReplaceAllString(s, "")

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if !streetSuffixWords[f] {
			kept = append(kept, f)
		}
	}

	return strings.Join(kept, " ")
}

// City canonicalizes a city for case-insensitive comparison.
func City(raw string) string {
	return collapse(strings.ToLower(raw))
}

// State canonicalizes a state code for case-insensitive comparison.
func State(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ZipCode reduces a ZIP or ZIP+4 to its 5-digit prefix, "" when the input
// does not carry five digits.
func ZipCode(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) < 5 {
		return ""
	}
	return d[:5]
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

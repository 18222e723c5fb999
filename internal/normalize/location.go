// Package normalize implements the Normalizer: free-text location parsing,
// role-family classification, and geo bucketing/scoring. Its entry points
// (Location, Role, Geo) are pure functions of their inputs.
package normalize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/vellum/internal/models"
)

var nonUSCountries = []string{
	"india", "canada", "mexico", "united kingdom", "uk", "ireland", "germany",
	"france", "spain", "italy", "netherlands", "poland", "ukraine", "brazil",
	"argentina", "australia", "singapore", "philippines", "vietnam", "china",
	"japan", "south korea", "pakistan", "bangladesh", "nigeria", "egypt",
	"south africa", "israel", "romania", "portugal", "sweden", "norway",
	"denmark", "finland", "switzerland", "austria", "belgium", "greece",
	"turkey", "indonesia", "malaysia", "thailand", "colombia", "chile", "peru",
}

var usaMentionPattern = regexp.MustCompile(`(?i)\b(united states|usa|u\.s\.a\.?|u\.s\.)\b`)

var remoteUSAPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)remote\s*-\s*usa`),
	regexp.MustCompile(`(?i)\bus\s+remote\b`),
	regexp.MustCompile(`(?i)united states,?\s*remote`),
	regexp.MustCompile(`(?i)remote\s*\(usa\)`),
}

var remoteGlobalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bremote\b`),
	regexp.MustCompile(`(?i)\bwork from (anywhere|home)\b`),
	regexp.MustCompile(`(?i)\bfully remote\b`),
}

var cityStatePattern = regexp.MustCompile(`(?i)^\s*([A-Za-z .'-]+?)\s*,\s*([A-Za-z]{2}|[A-Za-z .'-]+)\s*$`)

var bareStateCodePattern = regexp.MustCompile(`(?i)\b([A-Z]{2})\b`)

var stateNameToCode = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY", "district of columbia": "DC",
}

var validStateCodes = func() map[string]bool {
	m := make(map[string]bool, len(stateNameToCode))
	for _, code := range stateNameToCode {
		m[code] = true
	}
	return m
}()

var stateCodeToName = func() map[string]string {
	m := make(map[string]string, len(stateNameToCode))
	for name, code := range stateNameToCode {
		m[code] = name
	}
	return m
}()

// LocationOptions supplies the "alphabetical" vs "first_observed"
// multi-state primary-selection policy, surfaced as configuration per the
// recorded Open Question decision.
type LocationOptions struct {
	MultiStatePrimary string // "alphabetical" (default) or "first_observed"
}

// Location normalizes raw free-text location into its structured form.
// Rules are evaluated in order, first match per attribute wins.
func Location(raw string, opts LocationOptions) models.LocationNorm {
	out := models.LocationNorm{Raw: raw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return out
	}

	lower := strings.ToLower(trimmed)

	// Rule 1: non-US country keyword, without an explicit US mention,
	// suppresses state assignment entirely.
	if !usaMentionPattern.MatchString(trimmed) {
		for _, country := range nonUSCountries {
			if wordBoundaryContains(lower, country) {
				if idx := strings.Index(trimmed, ","); idx > 0 {
					out.City = strings.TrimSpace(trimmed[:idx])
				}
				return out
			}
		}
	}

	// Rule 2: tokenize on ; | / and newlines.
	tokens := regexp.MustCompile(`[;|/\n]`).Split(trimmed, -1)

	var states []string
	seenStates := make(map[string]bool)

	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		if matchesAny(tok, remoteUSAPatterns) {
			out.Remote = true
			out.RemoteScope = "usa"
			continue
		}
		if matchesAny(tok, remoteGlobalPatterns) {
			out.Remote = true
			if out.RemoteScope == "" {
				out.RemoteScope = "global"
			}
			continue
		}

		if m := cityStatePattern.FindStringSubmatch(tok); m != nil {
			city := strings.TrimSpace(m[1])
			statePart := strings.TrimSpace(m[2])
			code := resolveStateCode(statePart)
			if code != "" {
				if out.City == "" {
					out.City = city
				}
				if !seenStates[code] {
					seenStates[code] = true
					states = append(states, code)
				}
				continue
			}
		}

		// Bare 2-letter state code.
		for _, m := range bareStateCodePattern.FindAllString(tok, -1) {
			code := strings.ToUpper(m)
			if validStateCodes[code] && !seenStates[code] {
				seenStates[code] = true
				states = append(states, code)
			}
		}

		// Full state name embedded in text.
		for name, code := range stateNameToCode {
			if wordBoundaryContains(strings.ToLower(tok), name) && !seenStates[code] {
				seenStates[code] = true
				states = append(states, code)
			}
		}
	}

	if len(states) > 0 {
		out.States = append([]string(nil), states...)
		primary := states[0]
		if opts.MultiStatePrimary != "first_observed" {
			sorted := append([]string(nil), states...)
			sort.Strings(sorted)
			primary = sorted[0]
		}
		out.State = primary
		out.StateFull = strings.Title(stateCodeToName[primary])
	}

	return out
}

func resolveStateCode(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 2 {
		code := strings.ToUpper(s)
		if validStateCodes[code] {
			return code
		}
	}
	if code, ok := stateNameToCode[strings.ToLower(s)]; ok {
		return code
	}
	return ""
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func wordBoundaryContains(haystack, needle string) bool {
	pattern := `\b` + regexp.QuoteMeta(needle) + `\b`
	matched, _ := regexp.MatchString(pattern, haystack)
	return matched
}

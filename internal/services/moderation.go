package services

import (
	"regexp"
	"sort"
	"strings"
)

// Moderation flags produced by the content heuristic. These are persisted
// and shown in the admin queue, so the strings are part of the data model.
const (
	FlagPotentiallyAbusive = "potentially_abusive"
	FlagPotentialSpam      = "potential_spam"
	FlagPotentialThreat    = "potential_threat"
	FlagTooShort           = "too_short"
)

// Score penalties per flag category. Each category is applied at most once.
const (
	penaltyAbusive  = 20
	penaltySpam     = 30
	penaltyThreat   = 50
	penaltyTooShort = 10

	moderationPassThreshold = 50
	minContentLength        = 20
)

// ModerationResult is the outcome of the content heuristic.
type ModerationResult struct {
	Passed bool     `json:"passed"`
	Score  int      `json:"score"`
	Flags  []string `json:"flags"`
}

var (
	abusivePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(idiot|stupid|dumb|hate|terrible)\b`),
		regexp.MustCompile(`[A-Z]{10,}`),
	}

	spamPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(buy now|click here|free money|winner)\b`),
		regexp.MustCompile(`(?i)(https?://|www\.)`),
	}

	threatPattern = regexp.MustCompile(`(?i)\b(threat|kill|hurt|violence|attack)\b`)
)

// ModerateContent scores text against the abuse/spam/threat heuristics.
// The score starts at 100 and each matched category subtracts its penalty
// once, flooring at 0. Content passes when the score is at least 50 and no
// threat was flagged.
func ModerateContent(text string) ModerationResult {
	score := 100
	flags := []string{}

	if matchesAbusive(text) {
		flags = append(flags, FlagPotentiallyAbusive)
		score -= penaltyAbusive
	}

	for _, p := range spamPatterns {
		if p.MatchString(text) {
			flags = append(flags, FlagPotentialSpam)
			score -= penaltySpam
			break
		}
	}

	if threatPattern.MatchString(text) {
		flags = append(flags, FlagPotentialThreat)
		score -= penaltyThreat
	}

	if len(strings.TrimSpace(text)) < minContentLength {
		flags = append(flags, FlagTooShort)
		score -= penaltyTooShort
	}

	if score < 0 {
		score = 0
	}

	passed := score >= moderationPassThreshold && !containsFlag(flags, FlagPotentialThreat)

	return ModerationResult{
		Passed: passed,
		Score:  score,
		Flags:  flags,
	}
}

func matchesAbusive(text string) bool {
	for _, p := range abusivePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return hasLongRuneRun(text, 6)
}

// hasLongRuneRun reports whether the text repeats any single rune at least
// n times in a row. RE2 has no backreferences, so the run check is a loop.
func hasLongRuneRun(text string, n int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}

func containsFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

// keywordStopWords are common words excluded from keyword extraction.
var keywordStopWords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {}, "been": {},
	"were": {}, "they": {}, "them": {}, "their": {}, "there": {}, "which": {},
	"would": {}, "could": {}, "should": {}, "about": {}, "after": {},
	"before": {}, "because": {}, "when": {}, "where": {}, "what": {},
	"will": {}, "just": {}, "very": {}, "really": {}, "also": {}, "than": {},
	"then": {}, "being": {}, "other": {}, "some": {}, "more": {}, "most": {},
	"such": {}, "into": {}, "over": {}, "only": {}, "your": {}, "even": {},
}

const maxKeywords = 10

var keywordSanitizer = regexp.MustCompile(`[^a-z0-9\s]`)

// ExtractKeywords returns up to 10 keywords from the text, most frequent
// first. Tokens of length 3 or less and stop words are dropped; ties are
// broken by first appearance in the text.
func ExtractKeywords(text string) []string {
	cleaned := keywordSanitizer.ReplaceAllString(strings.ToLower(text), " ")
	tokens := strings.Fields(cleaned)

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, tok := range tokens {
		if len(tok) <= 3 {
			continue
		}
		if _, stop := keywordStopWords[tok]; stop {
			continue
		}
		if _, seen := counts[tok]; !seen {
			firstSeen[tok] = i
		}
		counts[tok]++
	}

	keywords := make([]string, 0, len(counts))
	for word := range counts {
		keywords = append(keywords, word)
	}

	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return firstSeen[keywords[i]] < firstSeen[keywords[j]]
	})

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

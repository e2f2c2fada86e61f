package extract

import (
	"regexp"
	"strings"
)

var (
	// METHOD SP path SP HTTP/version at line start, case-sensitive methods
	requestLinePattern = regexp.MustCompile(`(?m)^(GET|POST|PUT|DELETE|HEAD|OPTIONS|PATCH|TRACE|CONNECT) \S+ HTTP/\d(?:\.\d)?`)

	// HTTP/version SP 3-digit status at line start
	statusLinePattern = regexp.MustCompile(`(?m)^HTTP/\d(?:\.\d)? \d{3}`)

	hostHeaderPattern        = regexp.MustCompile(`(?m)^Host:`)
	contentTypeHeaderPattern = regexp.MustCompile(`(?m)^Content-Type:`)
)

const lengthBonusCap = 200

// ScoreRequest rates how much text looks like a raw HTTP request
func ScoreRequest(text string) int {
	score := 0
	if requestLinePattern.MatchString(text) {
		score += 200
	}
	if strings.HasPrefix(text, "HTTP/") {
		// A response, not a request
		score -= 100
	}
	if hostHeaderPattern.MatchString(text) {
		score += 40
	}
	if hasHeaderBodySeparator(text) {
		score += 20
	}
	score += lengthBonus(text)
	return score
}

// ScoreResponse rates how much text looks like a raw HTTP response
func ScoreResponse(text string) int {
	score := 0
	if statusLinePattern.MatchString(text) {
		score += 220
	}
	if requestLinePattern.MatchString(text) {
		score -= 120
	}
	if contentTypeHeaderPattern.MatchString(text) {
		score += 40
	}
	if hasHeaderBodySeparator(text) {
		score += 20
	}
	score += lengthBonus(text)
	return score
}

// FindRequestText picks the candidate most likely to be a raw HTTP request
// from the subtree. The second return is false when the tree held no text.
func FindRequestText(root Node) (string, bool) {
	return pickBest(CollectText(root), ScoreRequest)
}

// FindResponseText picks the candidate most likely to be a raw HTTP
// response from the subtree
func FindResponseText(root Node) (string, bool) {
	return pickBest(CollectText(root), ScoreResponse)
}

func pickBest(candidates []string, score func(string) int) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	best := candidates[0]
	bestScore := score(best)
	for _, c := range candidates[1:] {
		if s := score(c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, true
}

func hasHeaderBodySeparator(text string) bool {
	return strings.Contains(text, "\r\n\r\n") || strings.Contains(text, "\n\n")
}

// lengthBonus grows with text length and caps out, so a full captured
// message beats a stray header fragment without drowning the structural
// signals
func lengthBonus(text string) int {
	bonus := len(text) / 10
	if bonus > lengthBonusCap {
		bonus = lengthBonusCap
	}
	return bonus
}

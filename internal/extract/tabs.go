package extract

import "strings"

// editorTabVocabulary is the fixed caption set an inner request/response
// sub-editor uses for its own tabs. A tab group whose titles all come from
// this set is almost certainly not the user's request tabs.
var editorTabVocabulary = map[string]bool{
	"request":   true,
	"response":  true,
	"raw":       true,
	"pretty":    true,
	"hex":       true,
	"params":    true,
	"inspector": true,
	"render":    true,
}

// PickRequestTabGroup chooses, among look-alike tab groups, the one most
// likely to hold the user's request tabs. container is the bounds of the
// window the groups live in; the spatial terms prefer groups anchored to
// its top-left. Ties go to the first group encountered.
func PickRequestTabGroup(groups []*TabGroup, container Rect) *TabGroup {
	var best *TabGroup
	bestScore := 0

	for _, g := range groups {
		score := scoreTabGroup(g, container)
		if best == nil || score > bestScore {
			best, bestScore = g, score
		}
	}
	return best
}

func scoreTabGroup(g *TabGroup, container Rect) int {
	score := 10 * len(g.Titles)

	nonVocabulary := 0
	numeric := 0
	for _, title := range g.Titles {
		t := strings.ToLower(strings.TrimSpace(title))
		if !editorTabVocabulary[t] {
			nonVocabulary++
		}
		if isNumeric(t) {
			numeric++
		}
	}

	score += 20 * nonVocabulary
	if len(g.Titles) > 0 && nonVocabulary == 0 {
		score -= 15
	}

	// User-created tabs are often auto-numbered
	score += 60 * numeric

	bounds := g.Bounds()
	if container.Height > 0 && bounds.Y <= container.Y+container.Height/4 {
		score += 40
	} else {
		score -= 20
	}
	if container.Width > 0 && bounds.X <= container.X+(container.Width*2)/5 {
		score += 40
	} else {
		score -= 25
	}

	return score
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

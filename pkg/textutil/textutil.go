package textutil

import (
	"regexp"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// MatchName reports whether the normalized name contains any of the
// matchers, which are expected to be normalized already.
func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

type Match struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// MinMatchScore is the lowest jaro-winkler similarity RankNames keeps.
const MinMatchScore = 0.75

// RankNames orders candidates by similarity to query using jaro-winkler over
// normalized names. A candidate containing the query scores 1. At most limit
// matches are returned, limit <= 0 means no limit.
func RankNames(query string, candidates []string, limit int) []Match {
	query = NormalizeName(query)
	if query == "" {
		return nil
	}

	matchers := []string{query}
	var matches []Match
	for _, c := range candidates {
		score := 1.0
		if !MatchName(c, matchers) {
			score = matchr.JaroWinkler(query, NormalizeName(c), false)
		}
		if score < MinMatchScore {
			continue
		}
		matches = append(matches, Match{Name: c, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Name < matches[j].Name
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

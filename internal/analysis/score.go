package analysis

import (
	"regexp"
	"strconv"
)

var scorePatterns = []*regexp.Regexp{
	// "4/5", "4 / 5", "4 out of 5"
	regexp.MustCompile(`(?i)(?:^|[^\d.])([1-5])\s*(?:/|out of)\s*5(?:[^\d]|$)`),
	// "score: 4", "Rating - 4", "sentiment of 4"
	regexp.MustCompile(`(?i)(?:score|rating|rate|sentiment)[^\d\n]{0,15}([1-5])(?:[^\d.]|\.(?:\D|$)|$)`),
	// first standalone digit
	regexp.MustCompile(`(?:^|[^\d.])([1-5])(?:[^\d.]|\.(?:\D|$)|$)`),
}

// ParseScore extracts the 1-5 rating from a verdict, nil when there is none.
func ParseScore(verdict string) *int {
	for _, re := range scorePatterns {
		m := re.FindStringSubmatch(verdict)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return &n
	}
	return nil
}

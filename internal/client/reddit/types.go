package reddit

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Post is a normalized Reddit submission.
type Post struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Subreddit   string    `json:"subreddit"`
	Score       int       `json:"score"`
	NumComments int       `json:"num_comments"`
	Permalink   string    `json:"permalink"`
	CreatedAt   time.Time `json:"created_at"`
}

// SearchResult carries a page of posts. IsMock marks the empty fallback
// returned under a dry quota; fallback results are never persisted.
type SearchResult struct {
	Posts  []Post `json:"posts"`
	IsMock bool   `json:"is_mock"`
}

// listing mirrors Reddit's JSON envelope.
type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Author      string  `json:"author"`
				Title       string  `json:"title"`
				Selftext    string  `json:"selftext"`
				Subreddit   string  `json:"subreddit"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				Permalink   string  `json:"permalink"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
		After string `json:"after"`
	} `json:"data"`
}

var cashtagRe = regexp.MustCompile(`\$([A-Z]{1,5})\b`)

// Common uppercase words that look like tickers but are not.
var tickerStopwords = map[string]struct{}{
	"A": {}, "I": {}, "DD": {}, "CEO": {}, "IPO": {}, "YOLO": {}, "USA": {},
	"ETF": {}, "FOMO": {}, "ATH": {}, "EPS": {}, "PE": {}, "AI": {}, "IMO": {},
}

// ExtractTickers pulls cashtag mentions ($TSLA) out of post text, plus the
// queried symbol when it appears as a bare word. Results are deduplicated
// and sorted.
func ExtractTickers(text, queried string) []string {
	seen := map[string]struct{}{}
	for _, m := range cashtagRe.FindAllStringSubmatch(text, -1) {
		sym := m[1]
		if _, stop := tickerStopwords[sym]; stop {
			continue
		}
		seen[sym] = struct{}{}
	}
	queried = strings.ToUpper(strings.TrimSpace(queried))
	if queried != "" {
		upper := strings.ToUpper(text)
		for _, token := range strings.FieldsFunc(upper, func(r rune) bool {
			return !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9')
		}) {
			if token == queried {
				seen[queried] = struct{}{}
				break
			}
		}
	}
	out := make([]string, 0, len(seen))
	for sym := range seen {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

package catalog

import (
	"sort"

	"github.com/sahilm/fuzzy"
)

// Suggestion is one ranked search-box completion.
type Suggestion struct {
	Text  string `json:"text"`
	Field Field  `json:"field"`
	Score int    `json:"score"`
}

// maxSuggestions keeps the dropdown manageable.
const maxSuggestions = 20

// Suggest returns fuzzy-ranked completions for the search box, drawn from
// application names and authors. Exact filtering is Search's job; this is
// only a typing aid, so it tolerates typos and subsequence matches.
func Suggest(apps []Application, input string, limit int) []Suggestion {
	if input == "" {
		return nil
	}
	if limit <= 0 || limit > maxSuggestions {
		limit = maxSuggestions
	}

	var suggestions []Suggestion

	names := make([]string, len(apps))
	for i, app := range apps {
		names[i] = app.Name
	}
	for _, m := range fuzzy.Find(input, names) {
		suggestions = append(suggestions, Suggestion{
			Text:  names[m.Index],
			Field: FieldName,
			// Authors below get a small penalty, so boost names here.
			Score: m.Score + 10,
		})
	}

	authors := make([]string, len(apps))
	for i, app := range apps {
		authors[i] = app.Author
	}
	for _, m := range fuzzy.Find(input, authors) {
		suggestions = append(suggestions, Suggestion{
			Text:  authors[m.Index],
			Field: FieldAuthor,
			Score: m.Score,
		})
	}

	// Deduplicate, keeping the highest score per completion text.
	seen := make(map[string]Suggestion)
	for _, s := range suggestions {
		if best, ok := seen[s.Text]; !ok || s.Score > best.Score {
			seen[s.Text] = s
		}
	}
	deduped := make([]Suggestion, 0, len(seen))
	for _, s := range seen {
		deduped = append(deduped, s)
	}

	sort.Slice(deduped, func(i, j int) bool {
		if deduped[i].Score != deduped[j].Score {
			return deduped[i].Score > deduped[j].Score
		}
		return deduped[i].Text < deduped[j].Text
	})

	if len(deduped) > limit {
		deduped = deduped[:limit]
	}
	return deduped
}

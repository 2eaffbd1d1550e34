package mediainfo

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/mo"
)

// FindAudioByQuery fuzzy-matches a user query against the language and title tags
// of the given audio streams and returns the best-ranked stream's container index.
func FindAudioByQuery(streams []AudioStream, query string) mo.Option[int] {
	query = strings.TrimSpace(query)
	if query == "" {
		return mo.None[int]()
	}

	bestIdx := -1
	bestRank := -1
	for _, s := range streams {
		target := strings.TrimSpace(s.Language + " " + s.Title)
		if target == "" {
			continue
		}
		rank := fuzzy.RankMatchNormalizedFold(query, target)
		if rank < 0 {
			continue
		}
		// Lower rank means a closer match.
		if bestIdx == -1 || rank < bestRank {
			bestIdx = s.Index
			bestRank = rank
		}
	}

	if bestIdx == -1 {
		return mo.None[int]()
	}
	return mo.Some(bestIdx)
}

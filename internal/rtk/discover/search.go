package discover

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"

	"github.com/rtk-proxy/rtk/internal/rtk/session"
)

// filterByQuery narrows a set of extracted commands to those whose
// command text or paired output match a bleve query string, using an
// in-memory index built fresh for each discovery run. Grounded on the
// teacher's internal/indexer/bm25.go indexing conventions, repurposed
// from source-code search to command-history search: same bleve.Index
// API, no persistence to disk since a discovery run is a single pass.
func filterByQuery(observations []session.ExtractedCommand, query string) ([]session.ExtractedCommand, error) {
	mapping := bleve.NewIndexMapping()
	index, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("build command-history index: %w", err)
	}
	defer index.Close()

	for i, obs := range observations {
		doc := map[string]any{
			"command":   obs.Command,
			"session_id": obs.SessionID,
		}
		if obs.OutputContent != nil {
			doc["output"] = *obs.OutputContent
		}
		id := fmt.Sprintf("%d", i)
		if err := index.Index(id, doc); err != nil {
			return nil, fmt.Errorf("index command %d: %w", i, err)
		}
	}

	q := bleve.NewQueryStringQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = len(observations)
	result, err := index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search command history: %w", err)
	}

	matched := make([]session.ExtractedCommand, 0, len(result.Hits))
	for _, hit := range result.Hits {
		var idx int
		if _, err := fmt.Sscanf(hit.ID, "%d", &idx); err != nil {
			continue
		}
		if idx >= 0 && idx < len(observations) {
			matched = append(matched, observations[idx])
		}
	}
	return matched, nil
}

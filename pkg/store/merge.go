package store

import "fmt"

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the indexes to merge from, in order.
	SourcePaths []string
	// DestPath is the destination index.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	FilesMerged      int
	SpansMerged      int
	SourcesProcessed int
}

// Merge combines several indexes (for example one per package of a
// monorepo) into one. A file present in more than one source keeps the
// spans of the last source that lists it.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source indexes specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	dest, err := New(Config{Path: cfg.DestPath})
	if err != nil {
		return nil, fmt.Errorf("opening destination index: %w", err)
	}
	defer dest.Close()

	stats := &MergeStats{}
	seen := make(map[string]bool)
	for _, src := range cfg.SourcePaths {
		s, err := New(Config{Path: src})
		if err != nil {
			return nil, fmt.Errorf("opening source %s: %w", src, err)
		}
		idx, err := s.Load()
		s.Close()
		if err != nil {
			return nil, fmt.Errorf("loading source %s: %w", src, err)
		}

		for _, file := range idx.Files() {
			spans, _ := idx.Spans(file)
			if err := dest.PutFile(file, spans); err != nil {
				return nil, fmt.Errorf("merging %s: %w", file, err)
			}
			if !seen[file] {
				seen[file] = true
				stats.FilesMerged++
			}
			stats.SpansMerged += len(spans)
		}
		stats.SourcesProcessed++
	}

	if err := dest.Flush(); err != nil {
		return nil, fmt.Errorf("writing destination index: %w", err)
	}
	return stats, nil
}

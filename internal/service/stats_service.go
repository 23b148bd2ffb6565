package service

import (
	"context"
	"faqbot_backend/internal/model"
	"sort"
)

// KeywordCounter is the read side of the keyword index.
type KeywordCounter interface {
	CountKeywords(ctx context.Context) ([]model.KeywordStat, error)
}

// StatsService derives global keyword frequencies from the durable
// keyword index. Nothing is cached: every call rescans, so the result is
// independent of any live session.
type StatsService struct {
	Archive KeywordCounter
}

func NewStatsService(archive KeywordCounter) *StatsService {
	return &StatsService{Archive: archive}
}

// ComputeStats returns the keyword to count mapping. An empty store
// yields an empty map, never an error.
func (s *StatsService) ComputeStats(ctx context.Context) (map[string]int64, error) {
	rows, err := s.Archive.CountKeywords(ctx)
	if err != nil {
		return nil, err
	}

	stats := make(map[string]int64, len(rows))
	for _, row := range rows {
		stats[row.Keyword] += row.Count
	}
	return stats, nil
}

// ListStats returns the same counts as a stable slice, most frequent
// first, for the statistics endpoint.
func (s *StatsService) ListStats(ctx context.Context) ([]model.KeywordStat, error) {
	stats, err := s.ComputeStats(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]model.KeywordStat, 0, len(stats))
	for keyword, count := range stats {
		list = append(list, model.KeywordStat{Keyword: keyword, Count: count})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].Keyword < list[j].Keyword
	})
	return list, nil
}

package service

import (
	"context"
	"errors"
	"faqbot_backend/internal/model"
	"reflect"
	"testing"
)

type fakeKeywordCounter struct {
	rows []model.KeywordStat
	err  error
}

func (f *fakeKeywordCounter) CountKeywords(ctx context.Context) ([]model.KeywordStat, error) {
	return f.rows, f.err
}

func TestComputeStats(t *testing.T) {
	ctx := context.Background()

	t.Run("counts across users", func(t *testing.T) {
		svc := NewStatsService(&fakeKeywordCounter{rows: []model.KeywordStat{
			{Keyword: "store hours", Count: 3},
			{Keyword: "refund policy", Count: 1},
		}})

		got, err := svc.ComputeStats(ctx)
		if err != nil {
			t.Fatalf("ComputeStats: %v", err)
		}
		want := map[string]int64{"store hours": 3, "refund policy": 1}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("empty store yields empty map", func(t *testing.T) {
		svc := NewStatsService(&fakeKeywordCounter{})
		got, err := svc.ComputeStats(ctx)
		if err != nil {
			t.Fatalf("ComputeStats: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("got %v, want empty map", got)
		}
	})

	t.Run("store error propagates", func(t *testing.T) {
		svc := NewStatsService(&fakeKeywordCounter{err: errors.New("mysql down")})
		if _, err := svc.ComputeStats(ctx); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestListStats(t *testing.T) {
	svc := NewStatsService(&fakeKeywordCounter{rows: []model.KeywordStat{
		{Keyword: "refund policy", Count: 2},
		{Keyword: "store hours", Count: 5},
		{Keyword: "home delivery", Count: 2},
	}})

	got, err := svc.ListStats(context.Background())
	if err != nil {
		t.Fatalf("ListStats: %v", err)
	}
	want := []model.KeywordStat{
		{Keyword: "store hours", Count: 5},
		{Keyword: "home delivery", Count: 2},
		{Keyword: "refund policy", Count: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

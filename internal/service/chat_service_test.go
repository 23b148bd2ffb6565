package service

import (
	"context"
	"errors"
	"faqbot_backend/internal/config"
	"faqbot_backend/internal/model"
	"faqbot_backend/internal/util"
	"faqbot_backend/pkg/logger"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	m.Run()
}

type fakeBuffer struct {
	entries    map[string][]model.BufferEntry
	appendErr  error
	peekErr    error
	drainErr   error
	discardErr error
}

func newFakeBuffer() *fakeBuffer {
	return &fakeBuffer{entries: make(map[string][]model.BufferEntry)}
}

func (b *fakeBuffer) AppendTurn(ctx context.Context, key, userText, botText string, keywords []string) error {
	if b.appendErr != nil {
		return b.appendErr
	}
	b.entries[key] = append(b.entries[key],
		model.BufferEntry{Kind: model.UserMessage, Text: userText},
		model.BufferEntry{Kind: model.BotResponse, Text: botText, Keywords: keywords},
	)
	return nil
}

func (b *fakeBuffer) Peek(ctx context.Context, key string) ([]model.BufferEntry, error) {
	if b.peekErr != nil {
		return nil, b.peekErr
	}
	return b.entries[key], nil
}

func (b *fakeBuffer) Drain(ctx context.Context, key string) ([]model.BufferEntry, error) {
	if b.drainErr != nil {
		return nil, b.drainErr
	}
	entries := b.entries[key]
	delete(b.entries, key)
	return entries, nil
}

func (b *fakeBuffer) Discard(ctx context.Context, key string, n int) error {
	if b.discardErr != nil {
		return b.discardErr
	}
	if n >= len(b.entries[key]) {
		delete(b.entries, key)
		return nil
	}
	b.entries[key] = b.entries[key][n:]
	return nil
}

type fakeArchive struct {
	records     []*model.ChatRecord
	keywords    map[string]map[string]map[string]bool
	recordsErr  error
	keywordsErr error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{keywords: make(map[string]map[string]map[string]bool)}
}

func (a *fakeArchive) AppendRecords(ctx context.Context, records []*model.ChatRecord) error {
	if a.recordsErr != nil {
		return a.recordsErr
	}
	a.records = append(a.records, records...)
	return nil
}

func (a *fakeArchive) AddKeywords(ctx context.Context, username, dateKey string, keywords []string) error {
	if a.keywordsErr != nil {
		return a.keywordsErr
	}
	if a.keywords[username] == nil {
		a.keywords[username] = make(map[string]map[string]bool)
	}
	if a.keywords[username][dateKey] == nil {
		a.keywords[username][dateKey] = make(map[string]bool)
	}
	for _, kw := range keywords {
		a.keywords[username][dateKey][kw] = true
	}
	return nil
}

func (a *fakeArchive) HistoryByUser(ctx context.Context, username string) (map[string][]model.ChatRecord, error) {
	history := make(map[string][]model.ChatRecord)
	for _, r := range a.records {
		if r.Username == username {
			history[r.DateKey] = append(history[r.DateKey], *r)
		}
	}
	return history, nil
}

func (a *fakeArchive) KeywordsByUser(ctx context.Context, username string) (map[string][]string, error) {
	queries := make(map[string][]string)
	for dateKey, set := range a.keywords[username] {
		for kw := range set {
			queries[dateKey] = append(queries[dateKey], kw)
		}
	}
	return queries, nil
}

func newTestChatService(t *testing.T, buffer *fakeBuffer, archive *fakeArchive) *ChatService {
	t.Helper()
	responder, err := NewFAQResponder(config.DefaultFAQ())
	if err != nil {
		t.Fatalf("NewFAQResponder: %v", err)
	}
	return NewChatService(buffer, archive, responder)
}

func TestRecordTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("buffers the turn with matched keywords", func(t *testing.T) {
		buffer := newFakeBuffer()
		svc := newTestChatService(t, buffer, newFakeArchive())
		sess := model.NewSession("alice")

		resp, err := svc.RecordTurn(ctx, sess, "  What Are Your Store Hours?  ")
		if err != nil {
			t.Fatalf("RecordTurn: %v", err)
		}
		if resp != "Our store hours are from 9 AM to 9 PM." {
			t.Errorf("response = %q", resp)
		}

		entries := buffer.entries[sess.BufferKey()]
		if len(entries) != 2 {
			t.Fatalf("got %d buffered entries, want 2", len(entries))
		}
		if entries[0].Kind != model.UserMessage || entries[0].Text != "what are your store hours?" {
			t.Errorf("user entry = %+v, want normalized query", entries[0])
		}
		if entries[1].Kind != model.BotResponse {
			t.Errorf("bot entry kind = %q", entries[1].Kind)
		}
		if len(entries[1].Keywords) != 1 || entries[1].Keywords[0] != "store hours" {
			t.Errorf("bot entry keywords = %v", entries[1].Keywords)
		}
	})

	t.Run("buffer failure drops the response", func(t *testing.T) {
		buffer := newFakeBuffer()
		buffer.appendErr = errors.New("redis down")
		svc := newTestChatService(t, buffer, newFakeArchive())

		resp, err := svc.RecordTurn(ctx, model.NewSession("alice"), "store hours")
		if err == nil {
			t.Fatal("expected error")
		}
		if resp != "" {
			t.Errorf("response = %q, want empty on buffer failure", resp)
		}
	})
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()

	t.Run("archives every buffered turn and clears the buffer", func(t *testing.T) {
		buffer := newFakeBuffer()
		archive := newFakeArchive()
		svc := newTestChatService(t, buffer, archive)
		sess := model.NewSession("alice")

		queries := []string{"store hours", "home delivery", "do you sell meatballs"}
		for _, q := range queries {
			if _, err := svc.RecordTurn(ctx, sess, q); err != nil {
				t.Fatalf("RecordTurn(%q): %v", q, err)
			}
		}

		result, err := svc.EndSession(ctx, sess)
		if err != nil {
			t.Fatalf("EndSession: %v", err)
		}
		if !result.Committed || result.BufferEmpty || result.Malformed {
			t.Errorf("result = %+v", result)
		}
		if result.Records != 3 {
			t.Errorf("Records = %d, want 3", result.Records)
		}
		if len(archive.records) != 3 {
			t.Fatalf("archived %d records, want 3", len(archive.records))
		}
		if archive.records[0].UserQuery != "store hours" || archive.records[2].UserQuery != "do you sell meatballs" {
			t.Errorf("record order broken: %+v", archive.records)
		}
		if len(buffer.entries[sess.BufferKey()]) != 0 {
			t.Error("buffer not cleared after commit")
		}

		dateKey := archive.records[0].DateKey
		kws := archive.keywords["alice"][dateKey]
		if len(kws) != 2 || !kws["store hours"] || !kws["home delivery"] {
			t.Errorf("keyword index = %v", kws)
		}
	})

	t.Run("empty buffer is a no-op", func(t *testing.T) {
		archive := newFakeArchive()
		svc := newTestChatService(t, newFakeBuffer(), archive)

		result, err := svc.EndSession(ctx, model.NewSession("alice"))
		if err != nil {
			t.Fatalf("EndSession: %v", err)
		}
		if !result.BufferEmpty || result.Committed {
			t.Errorf("result = %+v, want BufferEmpty", result)
		}
		if len(archive.records) != 0 {
			t.Error("no-op wrote records")
		}
	})

	t.Run("second end of the same session is idempotent", func(t *testing.T) {
		buffer := newFakeBuffer()
		archive := newFakeArchive()
		svc := newTestChatService(t, buffer, archive)
		sess := model.NewSession("alice")

		svc.RecordTurn(ctx, sess, "store hours")
		if _, err := svc.EndSession(ctx, sess); err != nil {
			t.Fatalf("first EndSession: %v", err)
		}

		result, err := svc.EndSession(ctx, sess)
		if err != nil {
			t.Fatalf("second EndSession: %v", err)
		}
		if !result.BufferEmpty {
			t.Errorf("result = %+v, want BufferEmpty", result)
		}
		if len(archive.records) != 1 {
			t.Errorf("archived %d records, want 1", len(archive.records))
		}
	})

	t.Run("odd entry count drops the trailing entry and flags it", func(t *testing.T) {
		buffer := newFakeBuffer()
		archive := newFakeArchive()
		svc := newTestChatService(t, buffer, archive)
		sess := model.NewSession("alice")

		buffer.entries[sess.BufferKey()] = []model.BufferEntry{
			{Kind: model.UserMessage, Text: "store hours"},
			{Kind: model.BotResponse, Text: "Our store hours are from 9 AM to 9 PM.", Keywords: []string{"store hours"}},
			{Kind: model.UserMessage, Text: "home delivery"},
			{Kind: model.BotResponse, Text: "Yes, we offer home delivery for all our products.", Keywords: []string{"home delivery"}},
			{Kind: model.UserMessage, Text: "orphaned"},
		}

		result, err := svc.EndSession(ctx, sess)
		if err != nil {
			t.Fatalf("EndSession: %v", err)
		}
		if !result.Malformed {
			t.Error("Malformed not flagged")
		}
		if result.Records != 2 {
			t.Errorf("Records = %d, want 2", result.Records)
		}
	})

	t.Run("history failure preserves the buffer", func(t *testing.T) {
		buffer := newFakeBuffer()
		archive := newFakeArchive()
		archive.recordsErr = errors.New("mysql down")
		svc := newTestChatService(t, buffer, archive)
		sess := model.NewSession("alice")

		svc.RecordTurn(ctx, sess, "store hours")
		if _, err := svc.EndSession(ctx, sess); err == nil {
			t.Fatal("expected error")
		}
		if len(buffer.entries[sess.BufferKey()]) != 2 {
			t.Error("buffer lost after failed archive")
		}

		// A retry after the store recovers archives the same turns.
		archive.recordsErr = nil
		result, err := svc.EndSession(ctx, sess)
		if err != nil {
			t.Fatalf("retried EndSession: %v", err)
		}
		if result.Records != 1 {
			t.Errorf("Records = %d, want 1", result.Records)
		}
	})

	t.Run("keyword failure reports a partial archive", func(t *testing.T) {
		buffer := newFakeBuffer()
		archive := newFakeArchive()
		archive.keywordsErr = errors.New("mysql down")
		svc := newTestChatService(t, buffer, archive)
		sess := model.NewSession("alice")

		svc.RecordTurn(ctx, sess, "store hours")
		_, err := svc.EndSession(ctx, sess)

		var partial *util.PartialArchiveError
		if !errors.As(err, &partial) {
			t.Fatalf("err = %v, want PartialArchiveError", err)
		}
		if partial.Stage != "keywords" {
			t.Errorf("Stage = %q, want keywords", partial.Stage)
		}
		if len(buffer.entries[sess.BufferKey()]) != 2 {
			t.Error("buffer lost after partial archive")
		}
	})

	t.Run("discard failure still reports the committed archive", func(t *testing.T) {
		buffer := newFakeBuffer()
		buffer.discardErr = errors.New("redis down")
		archive := newFakeArchive()
		svc := newTestChatService(t, buffer, archive)
		sess := model.NewSession("alice")

		svc.RecordTurn(ctx, sess, "store hours")
		result, err := svc.EndSession(ctx, sess)
		if err == nil {
			t.Fatal("expected error")
		}
		if result == nil || !result.Committed {
			t.Errorf("result = %+v, want committed", result)
		}
		if len(archive.records) != 1 {
			t.Errorf("archived %d records, want 1", len(archive.records))
		}
	})
}

func TestForceDrain(t *testing.T) {
	ctx := context.Background()

	t.Run("archives and empties a superseded buffer", func(t *testing.T) {
		buffer := newFakeBuffer()
		archive := newFakeArchive()
		svc := newTestChatService(t, buffer, archive)
		sess := model.NewSession("alice")

		svc.RecordTurn(ctx, sess, "store hours")
		result, err := svc.ForceDrain(ctx, sess)
		if err != nil {
			t.Fatalf("ForceDrain: %v", err)
		}
		if !result.Committed || result.Records != 1 {
			t.Errorf("result = %+v", result)
		}
		if len(buffer.entries[sess.BufferKey()]) != 0 {
			t.Error("buffer not cleared")
		}
	})

	t.Run("empty buffer is a no-op", func(t *testing.T) {
		svc := newTestChatService(t, newFakeBuffer(), newFakeArchive())
		result, err := svc.ForceDrain(ctx, model.NewSession("alice"))
		if err != nil {
			t.Fatalf("ForceDrain: %v", err)
		}
		if !result.BufferEmpty {
			t.Errorf("result = %+v, want BufferEmpty", result)
		}
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	buffer := newFakeBuffer()
	archive := newFakeArchive()
	svc := newTestChatService(t, buffer, archive)
	sess := model.NewSession("alice")

	svc.RecordTurn(ctx, sess, "store hours")
	svc.RecordTurn(ctx, sess, "refund policy")
	if _, err := svc.EndSession(ctx, sess); err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	got, err := svc.History(ctx, "alice")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got.ChatHistory) != 1 {
		t.Fatalf("got %d history buckets, want 1", len(got.ChatHistory))
	}
	for dateKey, records := range got.ChatHistory {
		if len(records) != 2 {
			t.Errorf("bucket %s has %d records, want 2", dateKey, len(records))
		}
		if len(got.UserQueries[dateKey]) != 2 {
			t.Errorf("bucket %s has keywords %v, want 2", dateKey, got.UserQueries[dateKey])
		}
	}
}

func TestPairEntries(t *testing.T) {
	t.Run("repeated keywords collapse to one", func(t *testing.T) {
		entries := []model.BufferEntry{
			{Kind: model.UserMessage, Text: "store hours"},
			{Kind: model.BotResponse, Text: "a", Keywords: []string{"store hours"}},
			{Kind: model.UserMessage, Text: "store hours again"},
			{Kind: model.BotResponse, Text: "a", Keywords: []string{"store hours"}},
			{Kind: model.UserMessage, Text: "both"},
			{Kind: model.BotResponse, Text: "ab", Keywords: []string{"store hours", "home delivery"}},
		}
		records, keywords, malformed := pairEntries("alice", "2026-09-01", entries, time.Now())
		if malformed {
			t.Error("well-formed buffer flagged malformed")
		}
		if len(records) != 3 {
			t.Errorf("got %d records, want 3", len(records))
		}
		want := []string{"store hours", "home delivery"}
		if len(keywords) != len(want) || keywords[0] != want[0] || keywords[1] != want[1] {
			t.Errorf("keywords = %v, want %v", keywords, want)
		}
	})

	t.Run("empty input yields nothing", func(t *testing.T) {
		records, keywords, malformed := pairEntries("alice", "2026-09-01", nil, time.Now())
		if len(records) != 0 || len(keywords) != 0 || malformed {
			t.Errorf("got %v %v %v", records, keywords, malformed)
		}
	})
}

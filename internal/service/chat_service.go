package service

import (
	"context"
	"faqbot_backend/internal/model"
	"faqbot_backend/internal/util"
	"faqbot_backend/pkg/logger"
	"faqbot_backend/pkg/monitoring"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TurnBuffer is the ephemeral per-session append log. Drain is the
// atomic take-and-clear; the archival path uses Peek and Discard instead
// so that a failed durable write leaves the buffer untouched and a
// retried logout can re-attempt the whole drain.
type TurnBuffer interface {
	AppendTurn(ctx context.Context, key, userText, botText string, keywords []string) error
	Peek(ctx context.Context, key string) ([]model.BufferEntry, error)
	Drain(ctx context.Context, key string) ([]model.BufferEntry, error)
	Discard(ctx context.Context, key string, n int) error
}

// ArchiveStore is the durable side: dated per-user history plus the
// deduplicated keyword index.
type ArchiveStore interface {
	AppendRecords(ctx context.Context, records []*model.ChatRecord) error
	AddKeywords(ctx context.Context, username, dateKey string, keywords []string) error
	HistoryByUser(ctx context.Context, username string) (map[string][]model.ChatRecord, error)
	KeywordsByUser(ctx context.Context, username string) (map[string][]string, error)
}

type ChatService struct {
	Buffer    TurnBuffer
	Archive   ArchiveStore
	Responder QueryResponder
}

func NewChatService(buffer TurnBuffer, archive ArchiveStore, responder QueryResponder) *ChatService {
	return &ChatService{
		Buffer:    buffer,
		Archive:   archive,
		Responder: responder,
	}
}

// EndSessionResult reports what a session-end archive did.
type EndSessionResult struct {
	Committed   bool `json:"committed"`
	BufferEmpty bool `json:"bufferEmpty"`
	Records     int  `json:"records"`
	Malformed   bool `json:"malformed"`
}

// RecordTurn answers one user query and appends the completed turn to
// the session buffer. The bot entry carries the matched keywords so the
// merger does not re-run matching at drain time. On a buffer failure the
// response is not returned: an unbuffered turn would never be archived.
func (s *ChatService) RecordTurn(ctx context.Context, sess *model.Session, query string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	response, matched := s.Responder.Respond(sess.Username, normalized)

	if err := s.Buffer.AppendTurn(ctx, sess.BufferKey(), normalized, response, matched); err != nil {
		return "", err
	}
	return response, nil
}

// EndSession drains the session buffer into durable history and the
// keyword index. All records of one drain share the archive-time date
// key: a session spanning midnight files every turn under the logout
// date, not per-message dates.
//
// The buffer is only trimmed after both durable writes commit, and only
// by the number of entries actually archived, so a failure anywhere
// leaves the unarchived turns in place and turns appended concurrently
// survive the trim. Ending an already-drained session reports
// BufferEmpty and writes nothing.
func (s *ChatService) EndSession(ctx context.Context, sess *model.Session) (*EndSessionResult, error) {
	entries, err := s.Buffer.Peek(ctx, sess.BufferKey())
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return &EndSessionResult{BufferEmpty: true}, nil
	}

	result, err := s.archive(ctx, sess.Username, entries)
	if err != nil {
		return nil, err
	}

	if err := s.Buffer.Discard(ctx, sess.BufferKey(), len(entries)); err != nil {
		// The records are durable already; the leftover buffer will
		// duplicate them if the logout is retried.
		logger.Log.Error("buffer discard failed after committed archive",
			zap.String("username", sess.Username),
			zap.String("session", sess.ID),
			zap.Error(err))
		return result, err
	}
	return result, nil
}

// ForceDrain take-and-clears a superseded session's buffer and archives
// whatever it held. Unlike EndSession the clear comes first: the old
// session is being destroyed, and its buffer must not survive even if a
// stray writer still holds the stale session id. An archive failure
// after the clear loses the drained turns; it is logged as such and
// fails the caller.
func (s *ChatService) ForceDrain(ctx context.Context, sess *model.Session) (*EndSessionResult, error) {
	entries, err := s.Buffer.Drain(ctx, sess.BufferKey())
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return &EndSessionResult{BufferEmpty: true}, nil
	}

	result, err := s.archive(ctx, sess.Username, entries)
	if err != nil {
		logger.Log.Error("archive of force-drained buffer failed, drained turns lost",
			zap.String("username", sess.Username),
			zap.String("session", sess.ID),
			zap.Int("entries", len(entries)),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// archive pairs the drained entries into records and commits both
// durable halves. An odd entry count is a malformed buffer: the trailing
// unpaired entry is dropped, logged, and flagged on the result.
func (s *ChatService) archive(ctx context.Context, username string, entries []model.BufferEntry) (*EndSessionResult, error) {
	now := time.Now()
	dateKey := now.Format(util.DateFormat)
	records, keywords, malformed := pairEntries(username, dateKey, entries, now)

	if malformed {
		logger.Log.Warn("malformed session buffer, trailing entry dropped",
			zap.String("username", username),
			zap.Int("entries", len(entries)))
	}

	if err := s.Archive.AppendRecords(ctx, records); err != nil {
		monitoring.ArchiveFailures.WithLabelValues("history").Inc()
		return nil, err
	}

	if err := s.Archive.AddKeywords(ctx, username, dateKey, keywords); err != nil {
		monitoring.ArchiveFailures.WithLabelValues("keywords").Inc()
		return nil, &util.PartialArchiveError{Stage: "keywords", Err: err}
	}

	monitoring.TurnsArchived.Add(float64(len(records)))
	return &EndSessionResult{
		Committed: true,
		Records:   len(records),
		Malformed: malformed,
	}, nil
}

// pairEntries folds the raw buffer into completed turns and the
// deduplicated keyword set for the target date bucket.
func pairEntries(username, dateKey string, entries []model.BufferEntry, now time.Time) ([]*model.ChatRecord, []string, bool) {
	malformed := len(entries)%2 != 0

	var records []*model.ChatRecord
	var keywords []string
	seen := make(map[string]bool)

	for i := 0; i+1 < len(entries); i += 2 {
		user, bot := entries[i], entries[i+1]
		records = append(records, &model.ChatRecord{
			Username:    username,
			DateKey:     dateKey,
			UserQuery:   user.Text,
			BotResponse: bot.Text,
			CreatedAt:   now,
		})
		for _, kw := range bot.Keywords {
			if !seen[kw] {
				seen[kw] = true
				keywords = append(keywords, kw)
			}
		}
	}

	return records, keywords, malformed
}

// UserArchive is the logical durable shape for one user: dated history
// buckets and the parallel dated keyword sets.
type UserArchive struct {
	ChatHistory map[string][]model.ChatRecord `json:"chathistory"`
	UserQueries map[string][]string           `json:"user_queries"`
}

func (s *ChatService) History(ctx context.Context, username string) (*UserArchive, error) {
	history, err := s.Archive.HistoryByUser(ctx, username)
	if err != nil {
		return nil, err
	}
	queries, err := s.Archive.KeywordsByUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return &UserArchive{ChatHistory: history, UserQueries: queries}, nil
}

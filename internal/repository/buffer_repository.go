package repository

import (
	"context"
	"encoding/json"
	"faqbot_backend/internal/model"
	"faqbot_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

// drainScript is the atomic take-and-clear: the full list and its removal
// happen in one step, so no concurrent append can interleave between the
// read and the delete. A missing key yields an empty table.
var drainScript = redis.NewScript(`
local entries = redis.call('LRANGE', KEYS[1], 0, -1)
if #entries > 0 then
	redis.call('DEL', KEYS[1])
end
return entries
`)

// discardScript drops the first ARGV[1] entries. Entries appended after
// the caller's snapshot stay in place; Redis removes the key itself once
// the list is empty.
var discardScript = redis.NewScript(`
return redis.call('LTRIM', KEYS[1], tonumber(ARGV[1]), -1)
`)

// BufferRepository is the ephemeral per-session append log. One Redis
// list per (username, session id), JSON entries, created lazily by the
// first append.
type BufferRepository struct {
	Redis *redis.Client
}

func NewBufferRepository(rdb *redis.Client) *BufferRepository {
	return &BufferRepository{Redis: rdb}
}

// AppendTurn pushes the user entry and the bot entry as one MULTI/EXEC,
// so the pair of one call never interleaves with another call's pair on
// the same key.
func (r *BufferRepository) AppendTurn(ctx context.Context, key, userText, botText string, keywords []string) error {
	userData, err := json.Marshal(model.BufferEntry{Kind: model.UserMessage, Text: userText})
	if err != nil {
		return err
	}
	botData, err := json.Marshal(model.BufferEntry{Kind: model.BotResponse, Text: botText, Keywords: keywords})
	if err != nil {
		return err
	}

	pipe := r.Redis.TxPipeline()
	pipe.RPush(ctx, key, userData)
	pipe.RPush(ctx, key, botData)
	if _, err := pipe.Exec(ctx); err != nil {
		return util.StoreError("buffer append", err)
	}
	return nil
}

// Peek returns the buffered entries without consuming them. A missing
// key is an empty buffer, not an error.
func (r *BufferRepository) Peek(ctx context.Context, key string) ([]model.BufferEntry, error) {
	raw, err := r.Redis.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, util.StoreError("buffer read", err)
	}
	return decodeEntries(raw), nil
}

// Drain atomically returns the full entry list and removes the key.
func (r *BufferRepository) Drain(ctx context.Context, key string) ([]model.BufferEntry, error) {
	raw, err := drainScript.Run(ctx, r.Redis, []string{key}).StringSlice()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, util.StoreError("buffer drain", err)
	}
	return decodeEntries(raw), nil
}

// Discard removes the first n entries, the prefix a caller already
// archived from a Peek snapshot. Turns appended since that snapshot
// survive in the remainder.
func (r *BufferRepository) Discard(ctx context.Context, key string, n int) error {
	if n <= 0 {
		return nil
	}
	if err := discardScript.Run(ctx, r.Redis, []string{key}, n).Err(); err != nil && err != redis.Nil {
		return util.StoreError("buffer discard", err)
	}
	return nil
}

func decodeEntries(raw []string) []model.BufferEntry {
	entries := make([]model.BufferEntry, 0, len(raw))
	for _, item := range raw {
		var e model.BufferEntry
		if err := json.Unmarshal([]byte(item), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

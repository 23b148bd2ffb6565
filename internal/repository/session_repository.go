package repository

import (
	"context"
	"encoding/json"
	"faqbot_backend/internal/model"
	"faqbot_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

// releaseScript deletes the registry entry only while it still holds the
// given session id, so a logout carrying a superseded token cannot evict
// the session issued after it.
var releaseScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if raw then
	local sess = cjson.decode(raw)
	if sess.id == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
end
return 0
`)

// SessionRepository tracks the single active session per username.
type SessionRepository struct {
	Redis *redis.Client
}

func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{Redis: rdb}
}

func sessionKey(username string) string {
	return "chat:session:" + username
}

func (r *SessionRepository) Put(ctx context.Context, sess *model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := r.Redis.Set(ctx, sessionKey(sess.Username), data, 0).Err(); err != nil {
		return util.StoreError("session put", err)
	}
	return nil
}

// Get returns the active session for a username, or nil when there is
// none.
func (r *SessionRepository) Get(ctx context.Context, username string) (*model.Session, error) {
	raw, err := r.Redis.Get(ctx, sessionKey(username)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, util.StoreError("session get", err)
	}
	var sess model.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *SessionRepository) Release(ctx context.Context, username, sessionID string) error {
	if err := releaseScript.Run(ctx, r.Redis, []string{sessionKey(username)}, sessionID).Err(); err != nil && err != redis.Nil {
		return util.StoreError("session release", err)
	}
	return nil
}

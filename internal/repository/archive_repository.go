package repository

import (
	"context"
	"faqbot_backend/internal/model"
	"faqbot_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArchiveRepository is the durable side of the pipeline: per-user dated
// chat history and the per-user per-date keyword index. Both are
// append-only; nothing here rewrites or deletes.
type ArchiveRepository struct {
	DB *gorm.DB
}

func NewArchiveRepository(db *gorm.DB) *ArchiveRepository {
	return &ArchiveRepository{DB: db}
}

// AppendRecords grows a history bucket. Rows keep their insertion order
// through the auto-increment id, so existing records are never
// reordered.
func (r *ArchiveRepository) AppendRecords(ctx context.Context, records []*model.ChatRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := r.DB.WithContext(ctx).Create(&records).Error; err != nil {
		return util.StoreError("history append", err)
	}
	return nil
}

// AddKeywords grows a keyword bucket with add-if-absent semantics: the
// conflict target is the (username, date_key, keyword) unique index, so
// a keyword already present for the bucket is a no-op rather than a
// read-merge-write race.
func (r *ArchiveRepository) AddKeywords(ctx context.Context, username, dateKey string, keywords []string) error {
	if len(keywords) == 0 {
		return nil
	}
	entries := make([]model.KeywordEntry, 0, len(keywords))
	for _, kw := range keywords {
		entries = append(entries, model.KeywordEntry{
			Username: username,
			DateKey:  dateKey,
			Keyword:  kw,
		})
	}
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entries).Error
	if err != nil {
		return util.StoreError("keyword upsert", err)
	}
	return nil
}

// HistoryByUser renders the user's archive in its logical shape: date
// key to ordered record list.
func (r *ArchiveRepository) HistoryByUser(ctx context.Context, username string) (map[string][]model.ChatRecord, error) {
	var rows []model.ChatRecord
	err := r.DB.WithContext(ctx).
		Where("username = ?", username).
		Order("date_key ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, util.StoreError("history read", err)
	}

	history := make(map[string][]model.ChatRecord)
	for _, row := range rows {
		history[row.DateKey] = append(history[row.DateKey], row)
	}
	return history, nil
}

// KeywordsByUser renders the user's keyword index: date key to keyword
// set, in first-seen order.
func (r *ArchiveRepository) KeywordsByUser(ctx context.Context, username string) (map[string][]string, error) {
	var rows []model.KeywordEntry
	err := r.DB.WithContext(ctx).
		Where("username = ?", username).
		Order("date_key ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, util.StoreError("keyword read", err)
	}

	keywords := make(map[string][]string)
	for _, row := range rows {
		keywords[row.DateKey] = append(keywords[row.DateKey], row.Keyword)
	}
	return keywords, nil
}

// CountKeywords counts bucket memberships per keyword across all users
// and dates. Each row is one membership, so the per-keyword row count is
// the global frequency.
func (r *ArchiveRepository) CountKeywords(ctx context.Context) ([]model.KeywordStat, error) {
	var stats []model.KeywordStat
	err := r.DB.WithContext(ctx).
		Model(&model.KeywordEntry{}).
		Select("keyword, COUNT(*) AS count").
		Group("keyword").
		Scan(&stats).Error
	if err != nil {
		return nil, util.StoreError("keyword stats", err)
	}
	return stats, nil
}

// Package repo implements the data persistence layer for the gateway, backed
// by GORM. This file provides repository helpers for the ProcessedRecord
// model used to skip duplicate replies on queue redelivery.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
)

// ErrDuplicate indicates a processed-record row already exists for the
// given queue record ID.
var ErrDuplicate = errors.New("duplicate")

// WasProcessed reports whether a reply for the given queue record was
// already sent.
func WasProcessed(ctx context.Context, db *gorm.DB, recordID string) (bool, error) {
	if strings.TrimSpace(recordID) == "" {
		return false, nil
	}
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.ProcessedRecord{}).
		Where("record_id = ?", recordID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkProcessed records that the reply for a queue record went out. Returns
// ErrDuplicate when the record was already marked (a concurrent consumer won
// the race), which callers may treat as success.
func MarkProcessed(ctx context.Context, db *gorm.DB, recordID string, chatID int64) error {
	rec := &domain.ProcessedRecord{
		RecordID:  recordID,
		ChatID:    chatID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// PruneProcessed deletes markers older than the retention window. The queue's
// own retention bounds how old a redelivery can be, so markers past that age
// are dead weight.
func PruneProcessed(ctx context.Context, db *gorm.DB, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res := db.WithContext(ctx).
		Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&domain.ProcessedRecord{})
	return res.RowsAffected, res.Error
}

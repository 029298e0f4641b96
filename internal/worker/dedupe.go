// GORM-backed DedupeStore adapter. This keeps the dispatcher decoupled from
// the concrete repo package while reusing its functions.
package worker

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-telegram-gateway/internal/repo"
)

// GormDedupe implements DedupeStore on the repo layer.
type GormDedupe struct {
	DB *gorm.DB
}

// WasProcessed proxies repo.WasProcessed.
func (g GormDedupe) WasProcessed(ctx context.Context, recordID string) (bool, error) {
	return repo.WasProcessed(ctx, g.DB, recordID)
}

// MarkProcessed proxies repo.MarkProcessed. Losing the insert race to a
// concurrent consumer means the reply is recorded either way, so a duplicate
// is reported as success.
func (g GormDedupe) MarkProcessed(ctx context.Context, recordID string, chatID int64) error {
	err := repo.MarkProcessed(ctx, g.DB, recordID, chatID)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

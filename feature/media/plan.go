package media

import (
	"context"

	"go.uber.org/zap"
)

// Plan is the staged result of a reconciliation. Exactly one of Commit or
// Discard should be called once the observation write has finished.
type Plan struct {
	// Photos and Audio are the final lists.
	Photos []string
	Audio  []string
	// NewPhotos and NewAudio are the URLs uploaded by this reconciliation.
	NewPhotos []string
	NewAudio  []string

	stale    []string
	uploaded []string
	storage  Storage
	logger   *zap.Logger
}

// Stale returns the URLs that Commit will delete.
func (p *Plan) Stale() []string {
	return append([]string(nil), p.stale...)
}

// Commit deletes the stale objects. Failures are logged and leave an orphan.
// URLs that do not belong to the media store are skipped.
func (p *Plan) Commit(ctx context.Context) {
	for _, url := range p.stale {
		key, ok := p.storage.Locate(url)
		if !ok {
			p.logger.Debug("Skipping removal of foreign media", zap.String("url", url))
			continue
		}
		if err := p.storage.Delete(ctx, key); err != nil {
			p.logger.Warn("Failed to delete stale media", zap.String("key", key), zap.Error(err))
		}
	}
	p.stale = nil
}

// Discard deletes every object uploaded by this reconciliation.
func (p *Plan) Discard(ctx context.Context) {
	for _, key := range p.uploaded {
		if err := p.storage.Delete(ctx, key); err != nil {
			p.logger.Warn("Failed to discard uploaded media", zap.String("key", key), zap.Error(err))
		}
	}
	p.uploaded = nil
}

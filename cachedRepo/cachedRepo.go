package cachedRepo

import (
	"context"

	"github.com/raiyanplanet/Wibloo/socialRepo"
)

// CachedRepo fronts the persistent post repo with a cache. Toggles and
// comment writes change post counters outside this interface, so the
// service layer calls InvalidatePost after them.
type CachedRepo interface {
	socialRepo.PostRepo
	InvalidatePost(ctx context.Context, id string)
	Close() error
}

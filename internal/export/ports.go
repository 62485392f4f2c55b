package export

import (
	"context"

	"subsentry/internal/core"
)

// SnapshotExporter receives the full subscription list for one user after
// every successful ledger mutation. Exports are best-effort; a failed
// export never rolls the ledger back.
type SnapshotExporter interface {
	ExportSnapshot(ctx context.Context, userID string, subs []core.Subscription) error
}

package relevance

import (
	"context"

	"github.com/evgraham/corpus-search/internal/core/domain"
)

// RunStore persists fingerprinted runs. SaveRun reports whether the
// record was new; saving an already-recorded fingerprint is a no-op.
type RunStore interface {
	SaveRun(ctx context.Context, record RunRecord) (inserted bool, err error)
	GetRun(ctx context.Context, runID domain.Identifier) (*RunRecord, error)
	ListRuns(ctx context.Context, engineName string, limit int) ([]RunRecord, error)
}

package sheets

import (
	"context"

	"tally/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	LedgerAppender interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	LedgerRemover interface {
		Remove(ctx context.Context, id int64) error
	}
)

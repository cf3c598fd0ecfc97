package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/incident-docs/internal/core/domain"
	"github.com/kirillkom/incident-docs/internal/core/ports"
)

// DedupGuard answers whether an incident was already rendered with an
// exact template version. Other versions of the same key do not count.
type DedupGuard struct {
	ledger ports.GeneratedDocumentLedger
}

func NewDedupGuard(ledger ports.GeneratedDocumentLedger) *DedupGuard {
	return &DedupGuard{ledger: ledger}
}

func (g *DedupGuard) AlreadyGenerated(
	ctx context.Context,
	scope domain.Scope,
	incidentID, templateKey string,
	templateVersion int,
) (bool, error) {
	exists, err := g.ledger.Exists(ctx, scope, incidentID, templateKey, templateVersion)
	if err != nil {
		return false, fmt.Errorf("check generated documents: %w", err)
	}
	return exists, nil
}

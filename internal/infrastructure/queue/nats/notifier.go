package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/incident-docs/internal/core/domain"
	"github.com/kirillkom/incident-docs/internal/infrastructure/resilience"
)

const (
	EventTemplatesChanged   = "templates.changed"
	EventDocumentsGenerated = "documents.generated"
)

// ChangeEvent is the JSON body published on the change subject.
type ChangeEvent struct {
	Type            string    `json:"type"`
	FirmID          string    `json:"firm_id"`
	CompanyClientID string    `json:"company_client_id,omitempty"`
	TemplateKey     string    `json:"template_key,omitempty"`
	RunID           string    `json:"run_id,omitempty"`
	Generated       int       `json:"generated,omitempty"`
	Recorded        int       `json:"recorded,omitempty"`
	IncidentCodes   []string  `json:"incident_codes,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// ChangeNotifier publishes entity change events so other services can
// refresh their views.
type ChangeNotifier struct {
	pub      Publisher
	subject  string
	executor *resilience.Executor
	now      func() time.Time
}

func NewChangeNotifier(conn *nats.Conn, subject string, executor *resilience.Executor) *ChangeNotifier {
	return newChangeNotifier(conn, subject, executor)
}

func newChangeNotifier(pub Publisher, subject string, executor *resilience.Executor) *ChangeNotifier {
	return &ChangeNotifier{pub: pub, subject: subject, executor: executor, now: time.Now}
}

func (n *ChangeNotifier) TemplatesChanged(ctx context.Context, scope domain.Scope, tplScope domain.TemplateScope) error {
	return n.send(ctx, ChangeEvent{
		Type:            EventTemplatesChanged,
		FirmID:          scope.FirmID,
		CompanyClientID: tplScope.CompanyClientID,
		TemplateKey:     tplScope.TemplateKey,
	})
}

func (n *ChangeNotifier) DocumentsGenerated(ctx context.Context, scope domain.Scope, outcome domain.GenerationOutcome) error {
	codes := make([]string, 0, len(outcome.Summary.Documents))
	for _, doc := range outcome.Summary.Documents {
		codes = append(codes, doc.IncidentCode)
	}
	return n.send(ctx, ChangeEvent{
		Type:          EventDocumentsGenerated,
		FirmID:        scope.FirmID,
		RunID:         outcome.RunID,
		Generated:     outcome.Summary.Generated,
		Recorded:      outcome.Summary.Recorded,
		IncidentCodes: codes,
	})
}

func (n *ChangeNotifier) send(ctx context.Context, event ChangeEvent) error {
	event.OccurredAt = n.now().UTC()
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	return publish(ctx, n.executor, n.pub, n.subject, payload)
}

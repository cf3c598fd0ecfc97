package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

type IncidentRepository struct {
	db *sql.DB
}

func NewIncidentRepository(db *sql.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// ListIncidentsForGeneration returns incidents of the firm whose incident
// date falls in the inclusive range, oldest first.
func (r *IncidentRepository) ListIncidentsForGeneration(
	ctx context.Context,
	scope domain.Scope,
	filter domain.IncidentFilter,
) ([]domain.Incident, error) {
	query := `
SELECT i.id, i.code, i.incident_date, i.received_day, i.observations,
	t.code, t.name, w.full_name, w.national_id, c.id, c.name
FROM incidents i
JOIN workers w ON w.id = i.worker_id
JOIN company_clients c ON c.id = w.company_client_id
JOIN incident_types t ON t.id = i.incident_type_id
WHERE i.firm_id = $1 AND i.incident_date >= $2 AND i.incident_date <= $3
`
	args := []any{scope.FirmID, filter.DateFrom, filter.DateTo}
	if clientID := strings.TrimSpace(filter.CompanyClientID); clientID != "" {
		query += "AND c.id = $4\n"
		args = append(args, clientID)
	}
	query += "ORDER BY i.incident_date ASC, i.id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents for generation: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Incident, 0)
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		out = append(out, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIncident(row rowScanner) (domain.Incident, error) {
	var (
		inc          domain.Incident
		code         sql.NullString
		receivedDay  sql.NullTime
		observations sql.NullString
		fullName     sql.NullString
		nationalID   sql.NullString
	)
	err := row.Scan(
		&inc.ID,
		&code,
		&inc.IncidentDate,
		&receivedDay,
		&observations,
		&inc.IncidentTypeCode,
		&inc.IncidentTypeName,
		&fullName,
		&nationalID,
		&inc.CompanyClient.ID,
		&inc.CompanyClient.Name,
	)
	if err != nil {
		return domain.Incident{}, err
	}
	inc.Code = code.String
	inc.Observations = observations.String
	inc.Worker.FullName = fullName.String
	inc.Worker.NationalID = nationalID.String
	if receivedDay.Valid {
		day := receivedDay.Time
		inc.ReceivedDay = &day
	}
	return inc, nil
}

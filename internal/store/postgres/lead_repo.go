// Package postgres implements the repository interfaces on lib/pq. Lead
// metadata is stored as JSONB, classification reasons as a text array.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"groweasy-agent/internal/common/logger"
	"groweasy-agent/internal/models"
)

var (
	ErrLeadReadFailed  = errors.New("LEAD_READ_FAILED")
	ErrLeadWriteFailed = errors.New("LEAD_WRITE_FAILED")
)

type LeadRepo struct {
	db     *sql.DB
	logger logger.Logger
}

func NewLeadRepo(db *sql.DB, log logger.Logger) *LeadRepo {
	return &LeadRepo{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "lead_repo"}),
	}
}

const leadColumns = `id, name, phone, source, status, metadata, gibberish_count, classification_reasons, last_contact, last_classified_at, created_at`

func (r *LeadRepo) Create(ctx context.Context, lead *models.Lead) error {
	metadataJSON, err := json.Marshal(lead.Metadata)
	if err != nil {
		return fmt.Errorf("%w: marshal metadata: %v", ErrLeadWriteFailed, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO leads (
			id, name, phone, source, status, metadata, gibberish_count,
			classification_reasons, last_contact, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		lead.ID,
		lead.Name,
		lead.Phone,
		lead.Source,
		string(lead.Status),
		metadataJSON,
		lead.GibberishCount,
		pq.Array(lead.ClassificationReasons),
		lead.LastContact,
		lead.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert failed: %v", ErrLeadWriteFailed, err)
	}

	r.logger.Info("lead created", map[string]interface{}{
		"leadId": lead.ID,
		"source": lead.Source,
	})
	return nil
}

func (r *LeadRepo) FindByID(ctx context.Context, id string) (*models.Lead, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	return r.scanLead(row)
}

func (r *LeadRepo) FindByPhone(ctx context.Context, phone string) (*models.Lead, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE phone = $1`, phone)
	return r.scanLead(row)
}

func (r *LeadRepo) Update(ctx context.Context, lead *models.Lead) error {
	metadataJSON, err := json.Marshal(lead.Metadata)
	if err != nil {
		return fmt.Errorf("%w: marshal metadata: %v", ErrLeadWriteFailed, err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE leads SET
			status = $2,
			metadata = $3,
			gibberish_count = $4,
			classification_reasons = $5,
			last_contact = $6,
			last_classified_at = $7
		WHERE id = $1`,
		lead.ID,
		string(lead.Status),
		metadataJSON,
		lead.GibberishCount,
		pq.Array(lead.ClassificationReasons),
		lead.LastContact,
		nullableTime(lead.LastClassifiedAt),
	)
	if err != nil {
		return fmt.Errorf("%w: update failed: %v", ErrLeadWriteFailed, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", ErrLeadWriteFailed, err)
	}
	if affected == 0 {
		return models.ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepo) scanLead(row *sql.Row) (*models.Lead, error) {
	var (
		lead          models.Lead
		status        string
		metadataJSON  []byte
		reasons       pq.StringArray
		lastClassfied sql.NullTime
	)

	err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Phone,
		&lead.Source,
		&status,
		&metadataJSON,
		&lead.GibberishCount,
		&reasons,
		&lead.LastContact,
		&lastClassfied,
		&lead.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan failed: %v", ErrLeadReadFailed, err)
	}

	lead.Status = models.LeadStatus(status)
	lead.ClassificationReasons = []string(reasons)
	if lastClassfied.Valid {
		lead.LastClassifiedAt = lastClassfied.Time
	}

	lead.Metadata = models.NewMetadata()
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &lead.Metadata); err != nil {
			return nil, fmt.Errorf("%w: unmarshal metadata: %v", ErrLeadReadFailed, err)
		}
	}
	if lead.Metadata.CompletedFields == nil {
		lead.Metadata.CompletedFields = []string{}
	}

	return &lead, nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

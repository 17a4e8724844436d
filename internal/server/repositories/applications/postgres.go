package applications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/guildgate/internal/common"
	"github.com/dmitrijs2005/guildgate/internal/dbx"
	"github.com/dmitrijs2005/guildgate/internal/server/models"
)

const selectColumns = `id, applicant_id, username, display_name, game_id, avatar_url, application_text,
	photos, status, created_at, reviewed_by, reviewed_at, rejection_reason`

// PostgresRepository implements Repository on PostgreSQL through database/sql
// and the pgx stdlib driver.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository constructs a repository bound to db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts app and returns its id.
func (r *PostgresRepository) Create(ctx context.Context, app *models.Application) (string, error) {
	photos, err := encodePhotos(app.Photos)
	if err != nil {
		return "", err
	}

	query := `INSERT INTO applications (id, applicant_id, username, display_name, game_id, avatar_url,
			application_text, photos, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	var id string
	err = r.db.QueryRowContext(ctx, query, app.ID, app.ApplicantID, app.Username, app.DisplayName, app.GameID,
		app.AvatarURL, app.ApplicationText, photos, string(app.Status), app.CreatedAt).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

// Get returns the application with the given id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Application, error) {
	query := `SELECT ` + selectColumns + ` FROM applications WHERE id = $1`
	app, err := scanApplication(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return app, nil
}

// UpdatePhotos replaces the photo list of a pending application. A decided
// application is left untouched and reported as common.ErrorAlreadyDecided.
func (r *PostgresRepository) UpdatePhotos(ctx context.Context, id string, photos []string) error {
	if len(photos) > models.MaxPhotos {
		return fmt.Errorf("%d photos: %w", len(photos), common.ErrorValidation)
	}
	encoded, err := encodePhotos(photos)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `UPDATE applications SET photos = $2 WHERE id = $1 AND status = 'pending'`, id, encoded)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM applications WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return common.ErrorNotFound
	}
	return common.ErrorAlreadyDecided
}

// UpdateDecision writes the terminal review metadata. The pending check and
// the update run in one transaction with the row locked.
func (r *PostgresRepository) UpdateDecision(ctx context.Context, id string, d models.Decision) error {
	return dbx.WithTx(ctx, r.db, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM applications WHERE id = $1 FOR UPDATE`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if models.Status(status) != models.StatusPending {
			return common.ErrorAlreadyDecided
		}

		reason := sql.NullString{String: d.RejectionReason, Valid: d.RejectionReason != ""}
		_, err = tx.ExecContext(ctx,
			`UPDATE applications SET status = $2, reviewed_by = $3, reviewed_at = $4, rejection_reason = $5 WHERE id = $1`,
			id, string(d.Status), d.ReviewedBy, d.ReviewedAt, reason)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

// ListByStatus returns every application in status, oldest first.
func (r *PostgresRepository) ListByStatus(ctx context.Context, status models.Status) ([]*models.Application, error) {
	query := `SELECT ` + selectColumns + ` FROM applications WHERE status = $1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to select applications: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// LatestApproved returns the most recently created approved application of
// an applicant.
func (r *PostgresRepository) LatestApproved(ctx context.Context, applicantID string) (*models.Application, error) {
	query := `SELECT ` + selectColumns + ` FROM applications
		WHERE applicant_id = $1 AND status = $2
		ORDER BY created_at DESC, id DESC LIMIT 1`
	app, err := scanApplication(r.db.QueryRowContext(ctx, query, applicantID, string(models.StatusApproved)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return app, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app        models.Application
		photos     []byte
		status     string
		reviewedBy sql.NullString
		reviewedAt sql.NullTime
		reason     sql.NullString
	)
	if err := row.Scan(&app.ID, &app.ApplicantID, &app.Username, &app.DisplayName, &app.GameID, &app.AvatarURL,
		&app.ApplicationText, &photos, &status, &app.CreatedAt, &reviewedBy, &reviewedAt, &reason); err != nil {
		return nil, err
	}

	app.Photos = []string{}
	if len(photos) > 0 {
		if err := json.Unmarshal(photos, &app.Photos); err != nil {
			return nil, fmt.Errorf("decode photos: %w", err)
		}
	}
	app.Status = models.Status(status)
	app.ReviewedBy = reviewedBy.String
	app.RejectionReason = reason.String
	if reviewedAt.Valid {
		t := reviewedAt.Time
		app.ReviewedAt = &t
	}
	return &app, nil
}

func encodePhotos(photos []string) ([]byte, error) {
	if photos == nil {
		photos = []string{}
	}
	b, err := json.Marshal(photos)
	if err != nil {
		return nil, fmt.Errorf("encode photos: %w", err)
	}
	return b, nil
}

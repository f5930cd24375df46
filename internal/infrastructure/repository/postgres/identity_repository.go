package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
)

type IdentityRepository struct {
	db *sql.DB
}

func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, role, created_at
FROM identities
WHERE id = $1
`, id)

	var identity domain.Identity
	var role string
	if err := row.Scan(&identity.ID, &identity.Name, &role, &identity.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrIdentityNotFound, "get identity", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	identity.Role = domain.Role(role)
	return &identity, nil
}

func (r *IdentityRepository) List(ctx context.Context) ([]domain.Identity, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, role, created_at
FROM identities
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var out []domain.Identity
	for rows.Next() {
		var identity domain.Identity
		var role string
		if err := rows.Scan(&identity.ID, &identity.Name, &role, &identity.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan identity row: %w", err)
		}
		identity.Role = domain.Role(role)
		out = append(out, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return out, nil
}

func (r *IdentityRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE identities
SET role = $2
WHERE id = $1
`, id, string(role))
	if err != nil {
		return fmt.Errorf("update identity role: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update identity role rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrIdentityNotFound, "update identity role", fmt.Errorf("id %s", id))
	}
	return nil
}

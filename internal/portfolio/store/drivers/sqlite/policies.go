package sqlite

import (
	"context"
	"strings"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/domain"
)

type policiesRepo struct {
	q querier
}

func (r *policiesRepo) ListPoliciesByProject(ctx context.Context, projectID int64) ([]domain.AccessPolicy, error) {
	// Creation order keeps prefix evaluation deterministic when grants overlap.
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, project_id, path_prefix, created_at
		 FROM listing_access_policies WHERE project_id = ? ORDER BY id ASC`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []domain.AccessPolicy
	for rows.Next() {
		var p domain.AccessPolicy
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.PathPrefix, &p.CreatedAt); err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return policies, nil
}

func (r *policiesRepo) CreatePolicy(ctx context.Context, p domain.AccessPolicy) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO listing_access_policies (project_id, path_prefix, created_at)
		 VALUES (?, ?, ?)`,
		p.ProjectID, p.PathPrefix, p.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *policiesRepo) DeletePolicies(ctx context.Context, projectID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, projectID)
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := r.q.ExecContext(ctx,
		`DELETE FROM listing_access_policies WHERE project_id = ? AND id IN (`+placeholders+`)`,
		args...)
	return err
}

package sqlite

import (
	"context"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/domain"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
)

type projectsRepo struct {
	q querier
}

func (r *projectsRepo) GetProjectByID(ctx context.Context, id int64) (domain.Project, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at, updated_at FROM projects WHERE id = ?`, id)
	var p domain.Project
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Project{}, mapNotFound(err)
	}
	return p, nil
}

func (r *projectsRepo) GetDefaultProjectForUser(ctx context.Context, userID int64) (domain.Project, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at, updated_at
		 FROM projects WHERE user_id = ? ORDER BY id ASC LIMIT 1`, userID)
	var p domain.Project
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Project{}, mapNotFound(err)
	}
	return p, nil
}

func (r *projectsRepo) ListProjectsByUser(ctx context.Context, userID int64, page store.Page) ([]domain.Project, int, error) {
	var total int
	if err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT id, user_id, name, created_at, updated_at
		 FROM projects WHERE user_id = ?
		 ORDER BY id DESC LIMIT ? OFFSET ?`,
		userID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (r *projectsRepo) CreateProject(ctx context.Context, p domain.Project) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO projects (user_id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		p.UserID, p.Name, p.CreatedAt, p.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

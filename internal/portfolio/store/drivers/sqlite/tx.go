package sqlite

import (
	"database/sql"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
)

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Users() store.Users       { return &usersRepo{q: t.tx} }
func (t *txStore) Projects() store.Projects { return &projectsRepo{q: t.tx} }
func (t *txStore) Listings() store.Listings { return &listingsRepo{q: t.tx} }
func (t *txStore) Policies() store.Policies { return &policiesRepo{q: t.tx} }

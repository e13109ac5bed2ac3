package domain

import "time"

// AccessPolicy grants read access to every listing path under PathPrefix
// within its project. Policies never apply across projects.
type AccessPolicy struct {
	ID         int64
	ProjectID  int64
	PathPrefix string
	CreatedAt  time.Time
}

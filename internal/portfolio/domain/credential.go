package domain

// Credential is the result of a successful login.
type Credential struct {
	UserID int64
	Email  string
	Token  string
}

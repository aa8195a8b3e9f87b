package user

// Identity is the signed-in user. ID scopes the user's ticket ledger.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

package domain

// RecoveryRequest is submitted by a caller who forgot their password.
// Question and answer are compared case-sensitively against the stored user.
type RecoveryRequest struct {
	Email            string
	SecurityQuestion string
	SecurityAnswer   string
}

// MatchesSecurity reports whether the request's question and answer equal the stored ones.
func (r RecoveryRequest) MatchesSecurity(stored *User) bool {
	if stored == nil {
		return false
	}
	return stored.SecurityQuestion == r.SecurityQuestion && stored.SecurityAnswer == r.SecurityAnswer
}

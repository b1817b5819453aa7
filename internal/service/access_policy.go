package service

import "github.com/rafidev/contact-admin/internal/model"

// AccessPolicy decides whether an authenticated identity may operate the
// admin panel. Pure and synchronous; implementations must not perform IO.
type AccessPolicy interface {
	Authorized(identity model.Identity) bool
}

// OperatorPolicy authorizes exactly one operator address, compared
// case-sensitively. This is a deliberate single-tenant allowlist, not a
// role system; a broader allowlist drops in by replacing the policy.
type OperatorPolicy struct {
	Email string
}

// Authorized reports whether identity is the configured operator.
func (p OperatorPolicy) Authorized(identity model.Identity) bool {
	return p.Email != "" && identity.Email == p.Email
}

package enforcer

import "github.com/Ryan-Har/gymsync/pkg/models"

// LoadDefaultPolicies protects everything under "/" and opens the pages a
// guest needs to get a session.
func (e *Enforcer) LoadDefaultPolicies() {
	e.SetPolicy("/", "*", models.RoleUser)
	e.SetPolicy("/login", "*", models.RoleGuest)
	e.SetPolicy("/register", "*", models.RoleGuest)
	e.SetPolicy("/metrics", "GET", models.RoleGuest)
	e.SetPolicy("/static", "GET", models.RoleGuest)
}

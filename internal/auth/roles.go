package auth

// Role names carried in the JWT roles claim. Admin implies every other role;
// the checks below encode that so tokens don't need redundant entries.
const (
	RoleViewer    = "viewer"
	RoleEditor    = "editor"
	RoleReviewer  = "reviewer"
	RolePublisher = "publisher"
	RoleAdmin     = "admin"
)

// knownRoles orders roles weakest to strongest for the implication chain:
// every role implies viewer, admin implies everything.
var roleImplies = map[string][]string{
	RoleAdmin:     {RoleAdmin, RolePublisher, RoleReviewer, RoleEditor, RoleViewer},
	RolePublisher: {RolePublisher, RoleViewer},
	RoleReviewer:  {RoleReviewer, RoleViewer},
	RoleEditor:    {RoleEditor, RoleViewer},
	RoleViewer:    {RoleViewer},
}

// HasRole reports whether any of the granted roles satisfies the required
// role, following the implication chain.
func HasRole(granted []string, required string) bool {
	for _, g := range granted {
		for _, implied := range roleImplies[g] {
			if implied == required {
				return true
			}
		}
	}
	return false
}

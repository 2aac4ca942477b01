package catalog

import "github.com/bwengye/bwengye/internal/models"

// Role tags. The catalog, not the router, decides which concrete model
// fills each role: a model is nominated for a role by carrying the matching
// capability tag. Routing never hardcodes model names.
const (
	RoleFast      = "fast"
	RoleFlagship  = "flagship"
	RoleCode      = "code"
	RoleReasoning = "reasoning"
)

// Roles holds the resolved role assignments for one request. A nil field
// means no active model claims that role.
type Roles struct {
	Fast      *models.AIModel
	Flagship  *models.AIModel
	Code      *models.AIModel
	Reasoning *models.AIModel
}

// ResolveRoles scans the active catalog and picks the first chat-type model
// tagged for each role. The input is already ordered by name, so resolution
// is deterministic.
func ResolveRoles(active []models.AIModel) Roles {
	var r Roles
	for i := range active {
		m := &active[i]
		if m.ModelType != "chat" {
			continue
		}
		if r.Fast == nil && m.HasCapability(RoleFast) {
			r.Fast = m
		}
		if r.Flagship == nil && m.HasCapability(RoleFlagship) {
			r.Flagship = m
		}
		if r.Code == nil && m.HasCapability(RoleCode) {
			r.Code = m
		}
		if r.Reasoning == nil && m.HasCapability(RoleReasoning) {
			r.Reasoning = m
		}
	}
	return r
}

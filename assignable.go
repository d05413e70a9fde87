package taskflow

// Resolver computes which users an actor may assign or forward tasks to.
type Resolver struct {
	// DirectorAliases lists user names whose holders are treated as directors
	// regardless of their stored role.
	DirectorAliases []string
}

// EffectiveRole returns the role key used for assignment rules.
func (r Resolver) EffectiveRole(u *User) string {
	name := u.RoleName()
	if name == RoleMainDirector || name == RoleDirector || u == nil {
		return name
	}
	who := NormalizeRoleName(u.Name)
	for _, alias := range r.DirectorAliases {
		if alias != "" && NormalizeRoleName(alias) == who {
			return RoleDirector
		}
	}
	return name
}

var (
	directorTargets = map[string]bool{
		RoleGeneralManager: true,
		RoleManager:        true,
		RoleDepartmentHead: true,
	}
	generalManagerTargets = map[string]bool{
		RoleManager:                     true,
		RoleDepartmentHead:              true,
		RoleProjectManager:              true,
		RoleStandalone:                  true,
		RoleStandaloneRole:              true,
		RoleProjectManagerAndStandalone: true,
	}
)

// Resolve filters candidates down to the users actor may assign to. Order is preserved.
func (r Resolver) Resolve(actor *User, candidates []User) []User {
	var allowed map[string]bool
	switch r.EffectiveRole(actor) {
	case RoleDirector:
		allowed = directorTargets
	case RoleGeneralManager:
		allowed = generalManagerTargets
	}

	out := make([]User, 0, len(candidates))
	for _, c := range candidates {
		if allowed != nil && !allowed[c.RoleName()] {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ResolveAssignable applies the assignment rules without director aliases.
func ResolveAssignable(actor *User, candidates []User) []User {
	return Resolver{}.Resolve(actor, candidates)
}

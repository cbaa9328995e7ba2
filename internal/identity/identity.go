// Package identity holds the cached copy of the signed-in member's public
// profile. The snapshot only drives client-side routing; the API enforces
// authorization on every call.
package identity

// Role is the member role reported by the API.
type Role string

// Roles issued by the API. The TEMP roles belong to members who have not
// finished onboarding yet.
const (
	RoleUser        Role = "USER"
	RoleParent      Role = "PARENT"
	RoleAcademy     Role = "ACADEMY"
	RoleTemp        Role = "TEMP"
	RoleTempUser    Role = "TEMP_USER"
	RoleTempAcademy Role = "TEMP_ACADEMY"
)

// Entry paths, one per role family.
const (
	PathHome              = "/"
	PathParent            = "/parent"
	PathAcademy           = "/academy"
	PathSignupRole        = "/signup/role"
	PathParentOnboarding  = "/signup/parent/onboarding"
	PathAcademyOnboarding = "/signup/academy/onboarding"
)

// EntryPath maps a role to the screen a member lands on after sign-in.
// Unknown roles land on the home page.
func (r Role) EntryPath() string {
	switch r {
	case RoleUser, RoleParent:
		return PathParent
	case RoleAcademy:
		return PathAcademy
	case RoleTemp:
		return PathSignupRole
	case RoleTempUser:
		return PathParentOnboarding
	case RoleTempAcademy:
		return PathAcademyOnboarding
	default:
		return PathHome
	}
}

// Onboarding reports whether the role still has to finish sign-up.
func (r Role) Onboarding() bool {
	return r == RoleTemp || r == RoleTempUser || r == RoleTempAcademy
}

// Snapshot is the identity payload returned by login and refresh.
type Snapshot struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	AcademyID    *int64 `json:"academyId"`
	AcademyAdmin bool   `json:"academyAdmin"`
}

// IsZero reports whether the snapshot carries no identity at all.
func (s *Snapshot) IsZero() bool {
	return s == nil || (s.ID == 0 && s.Email == "" && s.Role == "")
}

// Patch is a partial update of a Snapshot; nil fields are left unchanged.
type Patch struct {
	Name         *string
	Email        *string
	Role         *Role
	AcademyID    *int64
	AcademyAdmin *bool
}

// Apply returns a copy of s with the patch applied.
func (s Snapshot) Apply(p Patch) Snapshot {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.Role != nil {
		s.Role = *p.Role
	}
	if p.AcademyID != nil {
		id := *p.AcademyID
		s.AcademyID = &id
	}
	if p.AcademyAdmin != nil {
		s.AcademyAdmin = *p.AcademyAdmin
	}
	return s
}

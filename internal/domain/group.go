package domain

import "time"

// Group is a named collection of principals within an organization.
type Group struct {
	ID        string
	OrgID     string
	Name      string
	Slug      string
	CreatedAt time.Time
}

// Membership kind constants. A principal has at most one membership row per
// group; the kind distinguishes the two variants.
const (
	MembershipDirect  = "direct"
	MembershipPending = "pending"
)

// Membership is a principal's membership in a group.
//
// Direct memberships exist only for activated principals and carry key-share
// side effects. Pending memberships are held by principals whose account
// setup is incomplete; they are converted to direct memberships on
// activation.
type Membership struct {
	GroupID     string
	PrincipalID string
	Kind        string // "direct" or "pending"
	CreatedAt   time.Time
}

// GroupMembershipInfo is a membership joined with its group's identity,
// as needed by the directory synchronizer.
type GroupMembershipInfo struct {
	GroupID   string
	GroupName string
	GroupSlug string
}

// GroupProjectGrant is a group's standing grant of access to a project:
// membership in the group implies holding a key share for the project.
type GroupProjectGrant struct {
	GroupID   string
	ProjectID string
	CreatedAt time.Time
}

package policy

// CallerContextKey is where middleware stores the resolved Caller in the
// request context.
const CallerContextKey = "caller"

// Caller is the resolved identity of a request. The zero value is an
// unauthenticated caller.
type Caller struct {
	UserID        int64
	Name          string
	Email         string
	IsAdmin       bool
	IsActivated   bool
	Authenticated bool
}

type Operation int

const (
	// OpReadPublished covers the public catalog and event detail reads.
	OpReadPublished Operation = iota
	// OpManageOwnApplications covers apply, unapply and "my events".
	OpManageOwnApplications
	// OpManageOwnSubscriptions covers subscribe/unsubscribe.
	OpManageOwnSubscriptions
	// OpMutateEvents covers event create, update and delete.
	OpMutateEvents
	// OpViewRosters covers applicant lists across all events.
	OpViewRosters
)

// CanAccess is the single authorization decision point. Unauthenticated
// callers only read published events; activated non-admins manage their own
// applications and subscriptions; admins mutate events and view rosters.
func CanAccess(c Caller, op Operation) bool {
	switch op {
	case OpReadPublished:
		return true
	case OpManageOwnApplications, OpManageOwnSubscriptions:
		return c.Authenticated && c.IsActivated && !c.IsAdmin
	case OpMutateEvents, OpViewRosters:
		return c.Authenticated && c.IsAdmin
	default:
		return false
	}
}

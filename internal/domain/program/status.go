package program

type Status string

const (
	StatusDraft         Status = "Draft"
	StatusPending       Status = "Pending"
	StatusUnderReview   Status = "Under Review"
	StatusQuery         Status = "Query"
	StatusQueryAnswered Status = "Query Answered"
	StatusCritical      Status = "Critical"
	StatusActive        Status = "Active"
	StatusCompleted     Status = "Completed"
	StatusRejected      Status = "Rejected"
)

// Active, Pending and Critical are no longer produced by the workflow but
// remain valid so that older rows still load.
var statuses = []Status{
	StatusDraft,
	StatusPending,
	StatusUnderReview,
	StatusQuery,
	StatusQueryAnswered,
	StatusCritical,
	StatusActive,
	StatusCompleted,
	StatusRejected,
}

// Statuses returns every known status in declaration order.
func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

// ParseStatus matches s exactly (case-sensitive) against the known statuses.
func ParseStatus(s string) (Status, bool) {
	for _, st := range statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

func (s Status) Valid() bool {
	_, ok := ParseStatus(string(s))
	return ok
}

// Terminal reports whether no further mutation is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

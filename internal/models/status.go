package models

// IssueStatus is the lifecycle state of an issue.
type IssueStatus string

const (
	StatusReported   IssueStatus = "reported"
	StatusInProgress IssueStatus = "in progress"
	StatusResolved   IssueStatus = "resolved"
)

// Valid reports whether s is one of the known statuses.
func (s IssueStatus) Valid() bool {
	switch s {
	case StatusReported, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// CanTransition reports whether an issue may move from one status to
// another. Resolved is terminal; there is no way back from any forward
// step.
func CanTransition(from, to IssueStatus) bool {
	switch from {
	case StatusReported:
		return to == StatusInProgress || to == StatusResolved
	case StatusInProgress:
		return to == StatusResolved
	case StatusResolved:
		return false
	}
	return false
}

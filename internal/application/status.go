package application

import "fmt"

type Status string

const (
	StatusPending     Status = "pending"
	StatusPreApproved Status = "pre_approved"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusPreApproved, StatusApproved, StatusRejected:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending:     {StatusApproved: true, StatusRejected: true},
	StatusPreApproved: {StatusApproved: true, StatusRejected: true},
	StatusApproved:    {},
	StatusRejected:    {},
}

func CanTransition(from, to Status) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// Reviewed reports whether staff have decided the application.
func (s Status) Reviewed() bool {
	return s == StatusApproved || s == StatusRejected
}

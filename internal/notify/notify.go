package notify

import (
	"context"
	"fmt"
)

// Receipt confirms a stored application to the applicant.
type Receipt struct {
	ApplicationID string
	To            string
	Name          string
	Status        string
}

// Decision tells the applicant the outcome of a review.
type Decision struct {
	ApplicationID string
	To            string
	Name          string
	Status        string
}

// Notifier sends applicant email. Callers treat failures as best-effort.
type Notifier interface {
	ApplicationReceived(ctx context.Context, r Receipt) error
	ApplicationDecided(ctx context.Context, d Decision) error
}

type Nop struct{}

func (Nop) ApplicationReceived(context.Context, Receipt) error { return nil }
func (Nop) ApplicationDecided(context.Context, Decision) error { return nil }

func greeting(name string) string {
	if name == "" {
		return "Hello,"
	}
	return fmt.Sprintf("Hello %s,", name)
}

func receivedBody(r Receipt) (subject, body string) {
	subject = "We received your housing application"
	next := "A member of our team will review it and contact you within 24-48 hours."
	if r.Status == "pre_approved" {
		next = "Your application meets our basic criteria and has been pre-approved. " + next
	}
	body = fmt.Sprintf("%s\n\nThank you for applying. Your application reference is %s.\n%s\n", greeting(r.Name), r.ApplicationID, next)
	return subject, body
}

func decidedBody(d Decision) (subject, body string) {
	switch d.Status {
	case "approved":
		subject = "Your housing application was approved"
		body = fmt.Sprintf("%s\n\nGood news: application %s has been approved. We will be in touch about move-in details.\n", greeting(d.Name), d.ApplicationID)
	default:
		subject = "Update on your housing application"
		body = fmt.Sprintf("%s\n\nAfter review we are unable to offer housing for application %s at this time. You are welcome to apply again.\n", greeting(d.Name), d.ApplicationID)
	}
	return subject, body
}

package port

// Mailer sends notification email to claim owners. Implementations must be
// safe to call from request handlers; failures are reported, not retried.
type Mailer interface {
	Send(to, subject, body string) error
}

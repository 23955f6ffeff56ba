package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Message is one outbound notification
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	HTML    bool   `json:"html"`
}

// Notifier delivers messages. Implementations honor ctx cancellation.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the log instead of delivering them, for development
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier
func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("Notification not delivered (log driver)")
	return nil
}

// VerificationMessage builds the account verification email
func VerificationMessage(to, verifyURL string) Message {
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Verify your email address</h2>
				<p>Thank you for registering for a study loan account. Please confirm your email address by clicking the button below:</p>
				<div style="text-align: center; margin: 30px 0;">
					<a href="%s" style="background-color: #4a86e8; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">Verify Email</a>
				</div>
				<p>If you did not create an account, please ignore this email.</p>
			</div>
		</body>
		</html>
	`, verifyURL)

	return Message{
		To:      to,
		Subject: "Verify Your Email Address",
		Body:    body,
		HTML:    true,
	}
}

// NewApplicationMessage builds the notice sent to the applications inbox after a submit
func NewApplicationMessage(inbox, applicantName, applicantEmail string, applicationID int64, sections []string) Message {
	if applicantName == "" {
		applicantName = applicantEmail
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Student %s (%s) submitted application #%d.\n", applicantName, applicantEmail, applicationID)
	if len(sections) > 0 {
		fmt.Fprintf(&b, "Sections provided: %s\n", strings.Join(sections, ", "))
	}
	b.WriteString("Open the staff dashboard to review it.\n")

	return Message{
		To:      inbox,
		Subject: "New Loan Application",
		Body:    b.String(),
	}
}

package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// ResendNotifier sends notifications through the Resend API.
type ResendNotifier struct {
	client      *resend.Client
	fromAddress string
}

// NewResendNotifier creates a Resend-backed notifier.
// fromAddress must be a sender verified in Resend.
func NewResendNotifier(apiKey, fromAddress string) *ResendNotifier {
	return &ResendNotifier{
		client:      resend.NewClient(apiKey),
		fromAddress: fromAddress,
	}
}

// Notify sends msg as an e-mail.
func (r *ResendNotifier) Notify(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    r.fromAddress,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}

	if _, err := r.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}
	return nil
}

package email

import (
	"context"
	"fmt"

	"github.com/tuannda91/courtbook/internal/kafka"
)

// Sender is the notification-delivery stand-in: real delivery is an external
// collaborator, so the worker just logs what would be sent.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.LifecycleEvent) error {
	if event.GuestEmail == "" {
		return nil
	}
	fmt.Printf("send email to %s about %s for court %d on %s %s-%s\n",
		event.GuestEmail, event.Type, event.SubCourtID, event.Date, event.StartTime, event.EndTime)
	return nil
}

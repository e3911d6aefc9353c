package mailer

import (
	"comebookus/src/lib"
	"comebookus/src/types"
	"encoding/json"
	"errors"
	"os"

	"github.com/google/uuid"
)

var queue = make(chan []byte, 256)

// NewMailerMessage enqueues an outbound email for the notification consumer.
// Enqueueing never blocks; a full queue drops the message with an error the
// caller is expected to log and move on from.
func NewMailerMessage(input *lib.SendMailInput) error {
	from := input.From
	if from == "" {
		from = os.Getenv("MAIL_FROM")
	}
	emailBody := &types.JSONB{
		"id":        uuid.NewString(),
		"from":      from,
		"from-name": input.FromName,
		"to":        input.To,
		"reply-to":  input.ReplyTo,
		"body":      input.Body,
		"html":      input.Html,
		"subject":   input.Subject,
	}
	body, err := json.Marshal(&emailBody)
	if err != nil {
		return err
	}
	select {
	case queue <- body:
		return nil
	default:
		return errors.New("mail queue is full")
	}
}

// Queue exposes the outbound messages to the consumer.
func Queue() <-chan []byte {
	return queue
}

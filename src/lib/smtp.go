package lib

import (
	"log"
	"os"
	"strconv"

	"github.com/wneessen/go-mail"
)

// GetSMTPClient builds a mail client for the configured provider. The
// notification consumer dials per delivery, so no client is cached here.
func GetSMTPClient() (*mail.Client, error) {
	switch os.Getenv("MAIL_PROVIDER") {
	case "sendgrid":
		return SMTPNewSendGrid()
	default:
		return SMTPNewDefault()
	}
}

func SMTPNewDefault() (*mail.Client, error) {
	host := os.Getenv("SMTP_HOST")
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	user := os.Getenv("SMTP_USERNAME")
	pass := os.Getenv("SMTP_PASSWORD")
	c, err := mail.NewClient(host, mail.WithPort(port), mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(user), mail.WithPassword(pass))
	if err != nil {
		log.Printf("Could not initialize smtp client: %s\n", err.Error())
		return nil, err
	}
	return c, nil
}

func SMTPNewSendGrid() (*mail.Client, error) {
	host := "smtp.sendgrid.net"
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	user := os.Getenv("SENDGRID_SMTP_USER")
	pass := os.Getenv("SENDGRID_API_KEY")
	c, err := mail.NewClient(
		host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(user),
		mail.WithPassword(pass),
	)
	if err != nil {
		log.Printf("Could not initialize smtp client: %s\n", err.Error())
		return nil, err
	}
	return c, nil
}

// SendMailInput is the payload queued for the notification consumer.
type SendMailInput struct {
	From     string   `json:"from"`
	FromName string   `json:"from-name"`
	To       []string `json:"to"`
	ReplyTo  string   `json:"reply-to"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Html     string   `json:"html"`
}

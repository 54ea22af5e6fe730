package worker_service

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/malek283/shop-chat/config"
)

// SendDeadLetterAlert mails the operator inbox about a permanently failed
// job. Callers are expected to throttle.
func SendDeadLetterAlert(jobID, jobType, errorMsg string) error {
	if config.Conf == nil || config.Conf.MAILTRAP.SMTPHost == "" {
		// mail alerting not configured, the log line is the alert
		return nil
	}

	host := config.Conf.MAILTRAP.SMTPHost
	port := config.Conf.MAILTRAP.SMTPPort
	username := config.Conf.MAILTRAP.Username
	password := config.Conf.MAILTRAP.Password
	from := config.Conf.MAILTRAP.From
	to := config.Conf.MAILTRAP.TO

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("[shop-chat] Dead letter: %s", jobType))
	m.SetBody("text/plain", fmt.Sprintf("Job %s of type %s failed permanently.\n\nLast error: %s\n\nThe job has been moved to the dead letter queue.", jobID, jobType, errorMsg))

	d := gomail.NewDialer(host, port, username, password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send dead letter alert: %w", err)
	}

	return nil
}

// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"
	"os"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendGapQuestion(toEmail, sessionId, question string) error
	SendRunComplete(toEmail, sessionId string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	frontendURL string // Added to construct links
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	// Get Frontend URL from ENV or default to a safe placeholder
	frontendURL := os.Getenv("FRONTEND_URL")

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		frontendURL: frontendURL,
	}
}

func (s *emailService) SendGapQuestion(toEmail, sessionId, question string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your Application Needs One More Answer")

	// Construct the clickable link pointing to the FRONTEND
	resumeLink := fmt.Sprintf("%s/runs/%s/resume", s.frontendURL, sessionId)

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>We need a little more from you</h2>
			<p>While matching your profile we found areas that need more detail:</p>
			<blockquote style="border-left: 4px solid #007BFF; padding-left: 15px; color: #555;">%s</blockquote>
			<p>Answer here to continue your application:</p>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Continue Application</a>
			<p>Your progress is saved. You can answer whenever you are ready.</p>
		</div>
	`, question, resumeLink)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send gap question to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Gap question sent to %s\n", toEmail)
	return nil
}

func (s *emailService) SendRunComplete(toEmail, sessionId string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your Application Draft Is Ready")

	resultLink := fmt.Sprintf("%s/runs/%s", s.frontendURL, sessionId)

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Your draft is ready!</h2>
			<p>We finished matching your profile and drafted your talking points and essay.</p>
			<a href="%s" style="background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">View Results</a>
		</div>
	`, resultLink)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send completion mail to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Completion mail sent to %s\n", toEmail)
	return nil
}

package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"delivery-ledger-backend/config"
	"delivery-ledger-backend/db/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

// Initialize the SMTP mailer once and store it in a global variable
var mailer *gomail.Dialer

// emailLogDB, when set, records every outbound email as an EmailLog row
var emailLogDB *gorm.DB

// SetEmailLogDB enables persistence of outbound email records
func SetEmailLogDB(db *gorm.DB) {
	emailLogDB = db
}

// InitializeMailer sets up the mailer using environment variables
func InitializeMailer() {
	mailHost := os.Getenv("SMTP_HOST")
	mailPort := os.Getenv("SMTP_PORT")
	mailUser := os.Getenv("SMTP_USER")
	mailPassword := os.Getenv("SMTP_PASSWORD")

	port, err := strconv.Atoi(mailPort)
	if err != nil {
		config.Logger.Error("Invalid SMTP_PORT value, defaulting to port 25",
			zap.String("provided_port", mailPort),
			zap.Error(err),
		)
		port = 25
	}

	mailer = gomail.NewDialer(mailHost, port, mailUser, mailPassword)
	config.Logger.Info("Mailer initialized successfully")
}

// GetMailer returns the initialized mailer
func GetMailer() *gomail.Dialer {
	return mailer
}

// SendEmail sends a plain email with an optional attachment, used for
// delivering rendered reports and failure notices.
func SendEmail(email string, message string, title string, attachmentPath string) error {
	if mailer == nil {
		err := fmt.Errorf("mailer is not initialized")
		config.Logger.Error("Email send failed: mailer is not initialized",
			zap.String("to_email", email),
			zap.String("subject", title),
			zap.Error(err),
		)
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", os.Getenv("SMTP_FROM"))
	m.SetHeader("To", email)
	m.SetHeader("Subject", title)
	m.SetBody("text/plain", message)

	if attachmentPath != "" {
		if _, err := os.Stat(attachmentPath); err == nil {
			m.Attach(attachmentPath)
		} else {
			config.Logger.Warn("Attachment file not found for email",
				zap.String("filepath", attachmentPath),
				zap.String("to_email", email),
				zap.Error(err),
			)
		}
	}

	if err := mailer.DialAndSend(m); err != nil {
		config.Logger.Error("Failed to send email via SMTP",
			zap.String("to_email", email),
			zap.String("subject", title),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	config.Logger.Info("Email sent successfully",
		zap.String("to_email", email),
		zap.String("subject", title),
	)

	if emailLogDB != nil {
		entry := &models.EmailLog{
			ID:             uuid.New(),
			Recipient:      email,
			Subject:        title,
			Message:        message,
			AttachmentPath: attachmentPath,
			SentAt:         time.Now(),
		}
		if err := emailLogDB.Create(entry).Error; err != nil {
			config.Logger.Warn("Failed to record outbound email",
				zap.String("to_email", email),
				zap.Error(err),
			)
		}
	}
	return nil
}

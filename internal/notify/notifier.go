// Package notify delivers payment reminders over email (SES) and SMS (SNS).
// Delivery is best-effort; the pipeline never waits on it.
package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"ledger-assistant/internal/common/logger"
)

var ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier resolves a party's contact from the replicated contact table and
// sends through whichever channel the party has on record.
type Notifier struct {
	ses       SESService
	sns       SNSService
	db        *sql.DB
	fromEmail string
	logger    logger.Logger
}

func New(ctx context.Context, region, fromEmail string, db *sql.DB, log logger.Logger) (*Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &Notifier{
		ses:       ses.NewFromConfig(awsCfg),
		sns:       sns.NewFromConfig(awsCfg),
		db:        db,
		fromEmail: fromEmail,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
	}, nil
}

// NewWithClients is the injection point for tests.
func NewWithClients(sesClient SESService, snsClient SNSService, db *sql.DB, fromEmail string, log logger.Logger) *Notifier {
	return &Notifier{
		ses:       sesClient,
		sns:       snsClient,
		db:        db,
		fromEmail: fromEmail,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

const contactQuery = `
	SELECT COALESCE(email, ''), COALESCE(phone, '')
	FROM party_contacts
	WHERE tenant_id = $1 AND LOWER(party_name) = LOWER($2)`

// SendReminder looks up the party's contact and delivers the message. Email
// wins when both channels exist.
func (n *Notifier) SendReminder(ctx context.Context, tenantID, partyName, message string) error {
	var email, phone string
	err := n.db.QueryRowContext(ctx, contactQuery, tenantID, partyName).Scan(&email, &phone)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: no contact on record for %s", ErrNotificationSendFailed, partyName)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
	}

	switch {
	case email != "":
		return n.sendEmail(ctx, email, partyName, message)
	case phone != "":
		return n.sendSMS(ctx, phone, message)
	default:
		return fmt.Errorf("%w: empty contact for %s", ErrNotificationSendFailed, partyName)
	}
}

func (n *Notifier) sendEmail(ctx context.Context, to, partyName, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String("Payment reminder for " + partyName)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.fromEmail),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
	}
	return nil
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
	}
	return nil
}

// Package notify fans a freshly hot lead out to the sales channel: SES email
// and SNS SMS to the configured sales contact, plus a Zoho CRM push. Every
// delivery is best-effort; a failed notification never fails the turn that
// produced it.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"

	"groweasy-agent/internal/common/config"
	"groweasy-agent/internal/common/logger"
	"groweasy-agent/internal/common/zoho"
	"groweasy-agent/internal/models"
)

// Interfaces for mocking the AWS clients.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type CRMService interface {
	CreateLead(ctx context.Context, record *zoho.LeadRecord) (string, error)
	SearchLeadsByPhone(ctx context.Context, phone string) ([]zoho.LeadRecord, error)
	UpdateLead(ctx context.Context, recordID string, record *zoho.LeadRecord) error
}

type Notifier struct {
	config config.NotificationConfig
	logger logger.Logger

	sesClient SESService
	snsClient SNSService
	crmClient CRMService
}

func NewNotifier(cfg config.NotificationConfig, integrations config.IntegrationConfig, log logger.Logger) (*Notifier, error) {
	notifier := &Notifier{
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "notify"}),
	}

	if cfg.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		notifier.sesClient = ses.NewFromConfig(awsCfg)
		notifier.snsClient = sns.NewFromConfig(awsCfg)
	}

	if integrations.Zoho.Enabled {
		notifier.crmClient = zoho.NewCRMClient(integrations.Zoho.OAuthToken)
	}

	return notifier, nil
}

// NotifyHotLead delivers the lead to every configured channel. Failures are
// logged per channel and swallowed.
func (n *Notifier) NotifyHotLead(ctx context.Context, lead *models.Lead) {
	notificationID := uuid.New().String()
	body := summaryBody(lead)

	if n.sesClient != nil && n.config.SalesEmail != "" {
		if err := n.sendEmail(ctx, n.config.SalesEmail, "New hot lead: "+lead.Name, body); err != nil {
			n.logger.Error("hot lead email failed", map[string]interface{}{
				"notificationId": notificationID,
				"leadId":         lead.ID,
				"error":          err.Error(),
			})
		}
	}

	if n.snsClient != nil && n.config.SalesPhone != "" {
		if err := n.sendSMS(ctx, n.config.SalesPhone, body); err != nil {
			n.logger.Error("hot lead SMS failed", map[string]interface{}{
				"notificationId": notificationID,
				"leadId":         lead.ID,
				"error":          err.Error(),
			})
		}
	}

	if n.crmClient != nil {
		if err := n.pushCRM(ctx, lead); err != nil {
			n.logger.Error("hot lead CRM push failed", map[string]interface{}{
				"notificationId": notificationID,
				"leadId":         lead.ID,
				"error":          err.Error(),
			})
		}
	}

	n.logger.Info("hot lead fan-out done", map[string]interface{}{
		"notificationId": notificationID,
		"leadId":         lead.ID,
	})
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

// pushCRM upserts the lead into Zoho keyed by phone number: a repeat
// qualification of the same contact bumps the existing record instead of
// duplicating it.
func (n *Notifier) pushCRM(ctx context.Context, lead *models.Lead) error {
	existing, err := n.crmClient.SearchLeadsByPhone(ctx, lead.Phone)
	if err != nil {
		return fmt.Errorf("search leads: %w", err)
	}

	record := crmRecord(lead)
	if len(existing) > 0 {
		return n.crmClient.UpdateLead(ctx, existing[0].ID, record)
	}

	_, err = n.crmClient.CreateLead(ctx, record)
	return err
}

func summaryBody(lead *models.Lead) string {
	details := []string{}
	for _, field := range models.RequiredFields {
		if value := lead.Metadata.Value(field); value != "" {
			details = append(details, fmt.Sprintf("%s: %s", field, value))
		}
	}
	return fmt.Sprintf("Hot lead %s (%s). %s", lead.Name, lead.Phone, strings.Join(details, ", "))
}

func crmRecord(lead *models.Lead) *zoho.LeadRecord {
	return &zoho.LeadRecord{
		LastName:    lead.Name,
		Phone:       lead.Phone,
		Source:      lead.Source,
		Rating:      "Hot",
		Description: summaryBody(lead),
	}
}

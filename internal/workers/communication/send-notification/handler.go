// internal/workers/communication/send-notification/handler.go
package sendnotification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	awsclients "equireal-workers/internal/common/aws"
	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/common/metrics"
	"equireal-workers/internal/lease/document"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-notification"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
	ErrTemplateNotFound       = errors.New("TEMPLATE_NOT_FOUND")
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config    *Config
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
	now       func() time.Time
}

func NewHandler(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient: sesClient,
		snsClient: snsClient,
		now:       time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "NOTIFICATION_SEND_FAILED"
		retries := int32(0)
		if errors.Is(err, ErrTemplateNotFound) {
			errorCode = "TEMPLATE_NOT_FOUND"
		} else if errors.Is(err, ErrNotificationSendFailed) {
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

// execute never fails on delivery: a refused email or SMS is reported as
// StatusFailed so the deal flow carries on.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	email, phone := h.recipientContact(input)

	subject, body, err := renderMessage(input.RecipientType, input.NotificationType, templateData{
		DealID:       input.DealID,
		ProposalID:   input.ProposalID,
		BusinessName: input.BusinessName,
		Reason:       input.Reason,
		Metadata:     input.Metadata,
	})
	if err != nil {
		return nil, err
	}

	sentAt := h.now().UTC().Format(time.RFC3339)
	notificationID := uuid.New().String()

	emailSent := false
	smsSent := false

	if h.config.EmailEnabled && email != "" {
		if err := h.sendEmail(ctx, email, subject, body); err != nil {
			metrics.NotificationsSent.WithLabelValues("email", StatusFailed).Inc()
			h.logger.Error("email send failed", map[string]interface{}{
				"error":  err,
				"dealId": input.DealID,
			})
			return &Output{NotificationID: notificationID, Status: StatusFailed, SentAt: sentAt}, nil
		}
		metrics.NotificationsSent.WithLabelValues("email", StatusSent).Inc()
		emailSent = true
	}

	// SMS only goes out for high priority notifications.
	if h.config.SMSEnabled && phone != "" && input.Priority == "high" {
		if err := h.sendSMS(ctx, phone, subject); err != nil {
			metrics.NotificationsSent.WithLabelValues("sms", StatusFailed).Inc()
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error":  err,
				"dealId": input.DealID,
			})
			return &Output{NotificationID: notificationID, Status: StatusFailed, SentAt: sentAt}, nil
		}
		metrics.NotificationsSent.WithLabelValues("sms", StatusSent).Inc()
		smsSent = true
	}

	status := StatusDisabled
	if emailSent || smsSent {
		status = StatusSent
	}

	h.logger.Info("notification processed", map[string]interface{}{
		"notificationId": notificationID,
		"type":           input.NotificationType,
		"recipientType":  input.RecipientType,
		"status":         status,
	})

	return &Output{
		NotificationID: notificationID,
		Status:         status,
		SentAt:         sentAt,
	}, nil
}

func (h *Handler) recipientContact(input *Input) (string, string) {
	if input.RecipientType == RecipientTypeLandlord {
		return h.config.LandlordEmail, h.config.LandlordPhone
	}
	return input.ContactEmail, input.ContactPhone
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	if h.sesClient == nil {
		return fmt.Errorf("%w: no SES client", ErrNotificationSendFailed)
	}
	html, err := document.ToHTML(body)
	if err != nil {
		h.logger.Warn("html body failed, sending text only", map[string]interface{}{"error": err})
		html = ""
	}
	_, err = h.sesClient.SendEmail(ctx, awsclients.EmailInput(h.config.FromEmail, to, subject, body, html))
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	if h.snsClient == nil {
		return fmt.Errorf("%w: no SNS client", ErrNotificationSendFailed)
	}
	_, err := h.snsClient.Publish(ctx, awsclients.SMSInput(to, message))
	return err
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, _ int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

package rollout

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/cockroachdb/errors"
)

// SQSAPI is the subset of the SQS client the alerter uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, opts ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Alert is the message body sent when a deployment rolls back.
type Alert struct {
	ApplicationID        string    `json:"applicationId"`
	EnvironmentID        string    `json:"environmentId"`
	EnvironmentName      string    `json:"environmentName,omitempty"`
	ProfileID            string    `json:"configurationProfileId"`
	DeploymentNumber     int       `json:"deploymentNumber"`
	ConfigurationVersion string    `json:"configurationVersion,omitempty"`
	Region               string    `json:"region"`
	RolledBackAt         time.Time `json:"rolledBackAt"`
}

// Alerter sends rollback alerts to a queue.
type Alerter struct {
	sqs      SQSAPI
	queueURL string
}

// NewAlerter creates an Alerter for queueURL.
func NewAlerter(client SQSAPI, queueURL string) *Alerter {
	return &Alerter{sqs: client, queueURL: queueURL}
}

// RolledBack sends an alert for the event's deployment. The message group
// keeps alerts of one environment ordered on FIFO queues and is ignored otherwise.
// Deployment numbers are per environment, so the deduplication id carries the
// environment key as well.
func (a *Alerter) RolledBack(ctx context.Context, ev Event, region string, at time.Time) error {
	body, err := json.Marshal(Alert{
		ApplicationID:        ev.Application.ID,
		EnvironmentID:        ev.Environment.ID,
		EnvironmentName:      ev.Environment.Name,
		ProfileID:            ev.ConfigurationProfile.ID,
		DeploymentNumber:     ev.DeploymentNumber,
		ConfigurationVersion: ev.ConfigurationVersion,
		Region:               region,
		RolledBackAt:         at.UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to encode alert")
	}

	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(a.queueURL),
		MessageBody: aws.String(string(body)),
	}
	if isFIFO(a.queueURL) {
		in.MessageGroupId = aws.String(environmentKey(ev))
		in.MessageDeduplicationId = aws.String(environmentKey(ev) + "#" + stageKey(ev))
	}
	if _, err := a.sqs.SendMessage(ctx, in); err != nil {
		return errors.Wrap(err, "failed to send rollback alert")
	}
	return nil
}

func isFIFO(queueURL string) bool {
	return strings.HasSuffix(queueURL, ".fifo")
}

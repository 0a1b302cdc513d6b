// Package snsio publishes job lifecycle events to SNS.
package snsio

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// processAttr tags every message with the consumer process name.
const processAttr = "process"

// JobStartEvent is the message published once per job creation.
type JobStartEvent struct {
	FileID string `json:"fileId"`
	JobID  string `json:"jobId"`
	UserID string `json:"userId"`
}

// SNSAPI is the SNS surface the publisher needs.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher sends JSON messages to one topic.
type Publisher struct {
	SNS      SNSAPI
	TopicARN string
}

// Publish serializes message and sends it with the consumer process
// name attached as a string attribute.
func (p *Publisher) Publish(ctx context.Context, message any, process string) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	out, err := p.SNS.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.TopicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			processAttr: {
				DataType:    aws.String("String"),
				StringValue: aws.String(process),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.TopicARN, err)
	}
	if out.MessageId == nil {
		return fmt.Errorf("publish to %s: no message id returned", p.TopicARN)
	}
	return nil
}

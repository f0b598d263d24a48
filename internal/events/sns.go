package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSPublisher struct {
	client   snsAPI
	topicArn string
}

func NewSNSPublisher(cfg aws.Config, topicArn string) (*SNSPublisher, error) {
	return newSNSPublisher(sns.NewFromConfig(cfg), topicArn)
}

func newSNSPublisher(client snsAPI, topicArn string) (*SNSPublisher, error) {
	if topicArn == "" {
		return nil, errors.New("empty sns topic arn")
	}
	return &SNSPublisher{client: client, topicArn: topicArn}, nil
}

func (p *SNSPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := evt.Marshal()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicArn),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(string(evt.Type))},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish failed for topic %s: %w", p.topicArn, err)
	}
	return nil
}

func (p *SNSPublisher) Close() error { return nil }

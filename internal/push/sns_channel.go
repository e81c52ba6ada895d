package push

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSService is the SNS surface used here, defined for mocking.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSChannel delivers to mobile sessions whose address is an SNS platform
// endpoint ARN. The destination tag rides along as a message attribute.
type SNSChannel struct {
	client SNSService
}

func NewSNSChannel(ctx context.Context, region string) (*SNSChannel, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &SNSChannel{client: sns.NewFromConfig(awsCfg)}, nil
}

// NewSNSChannelWithClient injects an SNS client, used by tests.
func NewSNSChannelWithClient(client SNSService) *SNSChannel {
	return &SNSChannel{client: client}
}

func (c *SNSChannel) SendToUser(ctx context.Context, address, destination, payload string) error {
	_, err := c.client.Publish(ctx, &sns.PublishInput{
		TargetArn: aws.String(address),
		Subject:   aws.String(destination),
		Message:   aws.String(payload),
	})
	if err != nil {
		return fmt.Errorf("sns publish to %s: %w", address, err)
	}
	return nil
}

func (c *SNSChannel) Name() string { return "sns" }

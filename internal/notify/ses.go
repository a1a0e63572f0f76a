package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESDispatcher delivers booking messages through AWS SESv2.
type SESDispatcher struct {
	client *sesv2.Client
	sender string
}

// NewSESDispatcher initializes an SES dispatcher using static credentials
// and region.
func NewSESDispatcher(accessKeyID, secretAccessKey, region, sender string) (*SESDispatcher, error) {
	if accessKeyID == "" || secretAccessKey == "" || region == "" {
		return nil, fmt.Errorf("ses credentials and region are required")
	}
	if sender == "" {
		return nil, fmt.Errorf("ses sender is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SESDispatcher{
		client: sesv2.NewFromConfig(awsCfg),
		sender: sender,
	}, nil
}

// Send delivers one booking message to its recipient.
func (d *SESDispatcher) Send(ctx context.Context, msg Message) error {
	if d == nil || d.client == nil {
		return fmt.Errorf("ses dispatcher is not initialized")
	}
	if msg.Email == "" {
		return fmt.Errorf("recipient email is required")
	}

	input := &sesv2.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.Email},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject(msg))},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body(msg))},
				},
			},
		},
		FromEmailAddress: aws.String(d.sender),
	}

	if _, err := d.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send ses email: %w", err)
	}

	return nil
}

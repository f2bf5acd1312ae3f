// internal/workers/communication/send-match-digest/service.go
package sendmatchdigest

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"

	awsclients "neighborhood-matcher/internal/common/aws"
	"neighborhood-matcher/internal/common/errors"
	"neighborhood-matcher/internal/common/logger"
	"neighborhood-matcher/internal/common/metrics"
	"neighborhood-matcher/internal/matching"
)

const charset = "UTF-8"

type Service struct {
	config *Config
	ses    awsclients.SESService
	sns    awsclients.SNSService
	logger logger.Logger
}

// NewService accepts nil clients for channels that are disabled.
func NewService(cfg *Config, clients *awsclients.Clients, log logger.Logger) *Service {
	s := &Service{config: cfg, logger: log}
	if clients != nil {
		s.ses = clients.SES
		s.sns = clients.SNS
	}
	return s
}

// Render builds the digest for the top matches in the order given.
func (s *Service) Render(input *Input) Digest {
	top := s.top(input)

	name := input.UserName
	if name == "" {
		name = "there"
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", name)

	if len(top) == 0 {
		body.WriteString("We have not found neighborhoods that fit your preferences yet. We will let you know when new matches appear.\n")
		return Digest{
			Subject: "Your neighborhood matches",
			Body:    body.String(),
			SMS:     "No neighborhood matches yet.",
		}
	}

	fmt.Fprintf(&body, "Here are your top %d neighborhood matches:\n\n", len(top))
	short := make([]string, len(top))
	for i, m := range top {
		fmt.Fprintf(&body, "%d. %s, %s - %d%% match (confidence %d%%)\n",
			i+1, m.Neighborhood.Name, m.Neighborhood.Location(), percent(m.Score), percent(m.Confidence))
		if len(m.Reasons) > 0 {
			fmt.Fprintf(&body, "   %s\n", m.Reasons[0])
		}
		short[i] = fmt.Sprintf("%s %d%%", m.Neighborhood.Name, percent(m.Score))
	}

	subject := fmt.Sprintf("Your top %d neighborhood matches", len(top))
	if len(top) == 1 {
		subject = "Your top neighborhood match"
	}
	return Digest{
		Subject: subject,
		Body:    body.String(),
		SMS:     "Top neighborhood matches: " + strings.Join(short, ", "),
	}
}

func (s *Service) top(input *Input) []matching.MatchResult {
	limit := s.config.MaxMatches
	if input.MaxMatches > 0 {
		limit = input.MaxMatches
	}
	if len(input.Matches) < limit {
		limit = len(input.Matches)
	}
	return input.Matches[:limit]
}

func percent(v float64) int {
	return int(math.Round(v * 100))
}

// Send delivers the digest on every requested and enabled channel. The job
// fails only when no channel succeeded; partial failures are reported.
func (s *Service) Send(ctx context.Context, input *Input) (*Output, error) {
	digest := s.Render(input)
	output := &Output{
		MessageID:  uuid.NewString(),
		Channels:   []string{},
		MatchCount: len(s.top(input)),
	}

	var attempted int
	var lastErr error
	var lastChannel string

	if input.RecipientEmail != "" && s.config.EmailEnabled && s.ses != nil {
		attempted++
		id, err := s.sendEmail(ctx, input.RecipientEmail, digest)
		if err != nil {
			lastErr, lastChannel = err, ChannelEmail
			output.FailedChannels = append(output.FailedChannels, ChannelEmail)
		} else {
			output.EmailMessageID = id
			output.Channels = append(output.Channels, ChannelEmail)
		}
	}

	if input.RecipientPhone != "" && s.config.SMSEnabled && s.sns != nil {
		attempted++
		id, err := s.sendSMS(ctx, input.RecipientPhone, digest)
		if err != nil {
			lastErr, lastChannel = err, ChannelSMS
			output.FailedChannels = append(output.FailedChannels, ChannelSMS)
		} else {
			output.SMSMessageID = id
			output.Channels = append(output.Channels, ChannelSMS)
		}
	}

	if attempted == 0 {
		return nil, errors.NewInputSchemaInvalidError("no enabled channel for the given recipient")
	}
	if len(output.Channels) == 0 {
		return nil, errors.NewNotificationSendFailedError(lastChannel, lastErr)
	}
	if len(output.FailedChannels) > 0 {
		s.logger.Warn("digest partially delivered", map[string]interface{}{
			"messageId": output.MessageID,
			"failed":    output.FailedChannels,
			"error":     lastErr,
		})
	}

	output.SentAt = time.Now().UTC()
	s.logger.Info("match digest sent", map[string]interface{}{
		"messageId":  output.MessageID,
		"channels":   output.Channels,
		"matchCount": output.MatchCount,
	})
	return output, nil
}

func (s *Service) sendEmail(ctx context.Context, to string, d Digest) (string, error) {
	out, err := s.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.config.FromEmail),
		Destination: &sestypes.Destination{ToAddresses: []string{to}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(d.Subject), Charset: aws.String(charset)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(d.Body), Charset: aws.String(charset)},
			},
		},
	})
	if err != nil {
		metrics.DigestsSent.WithLabelValues(ChannelEmail, "failed").Inc()
		return "", err
	}
	metrics.DigestsSent.WithLabelValues(ChannelEmail, "sent").Inc()
	return aws.ToString(out.MessageId), nil
}

func (s *Service) sendSMS(ctx context.Context, phone string, d Digest) (string, error) {
	attrs := map[string]snstypes.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
	}
	if s.config.SenderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.config.SenderID),
		}
	}

	out, err := s.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(phone),
		Message:           aws.String(d.SMS),
		MessageAttributes: attrs,
	})
	if err != nil {
		metrics.DigestsSent.WithLabelValues(ChannelSMS, "failed").Inc()
		return "", err
	}
	metrics.DigestsSent.WithLabelValues(ChannelSMS, "sent").Inc()
	return aws.ToString(out.MessageId), nil
}

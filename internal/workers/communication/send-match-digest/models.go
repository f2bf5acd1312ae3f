// internal/workers/communication/send-match-digest/models.go
package sendmatchdigest

import (
	"time"

	"neighborhood-matcher/internal/matching"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Input usually carries the matches output of find-neighborhood-matches.
type Input struct {
	RecipientEmail string                 `json:"recipientEmail,omitempty" validate:"omitempty,email"`
	RecipientPhone string                 `json:"recipientPhone,omitempty" validate:"omitempty,e164"`
	UserName       string                 `json:"userName,omitempty" validate:"max=100"`
	Matches        []matching.MatchResult `json:"matches"`
	MaxMatches     int                    `json:"maxMatches,omitempty" validate:"gte=0,lte=8"`
}

type Output struct {
	MessageID      string    `json:"messageId"`
	EmailMessageID string    `json:"emailMessageId,omitempty"`
	SMSMessageID   string    `json:"smsMessageId,omitempty"`
	Channels       []string  `json:"channels"`
	FailedChannels []string  `json:"failedChannels,omitempty"`
	MatchCount     int       `json:"matchCount"`
	SentAt         time.Time `json:"sentAt"`
}

// Digest is the rendered message for every channel.
type Digest struct {
	Subject string
	Body    string
	SMS     string
}

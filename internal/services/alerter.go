package services

import (
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Alerter notifies an operator that a refresh failed
type Alerter interface {
	Alert(message string) error
}

// MockAlerter logs alerts instead of sending them
type MockAlerter struct {
	logger *logrus.Logger
	Sent   []string
}

func NewMockAlerter(logger *logrus.Logger) *MockAlerter {
	return &MockAlerter{logger: logger}
}

func (a *MockAlerter) Alert(message string) error {
	a.Sent = append(a.Sent, message)
	a.logger.WithField("alert", message).Warn("MOCK ALERT")
	return nil
}

// twilioMessenger is the slice of the Twilio API used for alerts
type twilioMessenger interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioAlerter sends alerts as SMS through Twilio
type TwilioAlerter struct {
	api        twilioMessenger
	fromNumber string
	toNumber   string
	logger     *logrus.Logger
}

func NewTwilioAlerter(accountSID, authToken, fromNumber, toNumber string, logger *logrus.Logger) (*TwilioAlerter, error) {
	to, err := normalizePhoneNumber(toNumber)
	if err != nil {
		return nil, fmt.Errorf("invalid alert phone number: %w", err)
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioAlerter{
		api:        client.Api,
		fromNumber: fromNumber,
		toNumber:   to,
		logger:     logger,
	}, nil
}

func (a *TwilioAlerter) Alert(message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(a.toNumber)
	params.SetFrom(a.fromNumber)
	params.SetBody(message)

	resp, err := a.api.CreateMessage(params)
	if err != nil {
		a.logger.WithError(err).Error("Twilio alert failed")
		return fmt.Errorf("failed to send alert: %w", err)
	}

	entry := a.logger.WithField("to", a.toNumber)
	if resp.Sid != nil {
		entry = entry.WithField("sid", *resp.Sid)
	}
	entry.Info("Alert sent")
	return nil
}

var (
	nonDialChars = regexp.MustCompile(`[^\d+]`)
	usNumber     = regexp.MustCompile(`^\d{10}$`)
	e164         = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
)

// normalizePhoneNumber converts to E.164, assuming US for bare 10 digit numbers
func normalizePhoneNumber(phone string) (string, error) {
	cleaned := nonDialChars.ReplaceAllString(phone, "")
	if usNumber.MatchString(cleaned) {
		cleaned = "+1" + cleaned
	}
	if !e164.MatchString(cleaned) {
		return "", fmt.Errorf("%q is not an E.164 number", phone)
	}
	return cleaned, nil
}

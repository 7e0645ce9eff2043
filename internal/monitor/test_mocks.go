package monitor

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/technosupport/ts-camwatch/internal/alerting"
	"github.com/technosupport/ts-camwatch/internal/events"
	"github.com/technosupport/ts-camwatch/internal/isapi"
)

// MockChatSink
type MockChatSink struct {
	mock.Mock
}

func (m *MockChatSink) SendBatch(ctx context.Context, cfg alerting.TelegramSettings, header string, lines []string) (bool, error) {
	args := m.Called(ctx, cfg, header, lines)
	return args.Bool(0), args.Error(1)
}

// MockMailSink
type MockMailSink struct {
	mock.Mock
}

func (m *MockMailSink) SendBatch(ctx context.Context, cfg alerting.MailSettings, subject string, lines []string) (bool, error) {
	args := m.Called(ctx, cfg, subject, lines)
	return args.Bool(0), args.Error(1)
}

// MockPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, tr events.Transition) error {
	args := m.Called(ctx, tr)
	return args.Error(0)
}

// MockNVRClient
type MockNVRClient struct {
	mock.Mock
}

func (m *MockNVRClient) ChannelStatuses(ctx context.Context, ip, username, password string) ([]isapi.ChannelStatus, error) {
	args := m.Called(ctx, ip, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]isapi.ChannelStatus), args.Error(1)
}

// Package opslog posts operational lines for operators: the Discord log
// channel and, optionally, a Telegram chat. End users never see these.
package opslog

import (
	"context"
	"fmt"
	"log/slog"

	"go-training-bot/internal/constants"
	"go-training-bot/internal/platform"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Sink interface {
	Name() string
	Write(ctx context.Context, text string) error
}

type Log struct {
	sinks []Sink
	log   *slog.Logger
}

func New(log *slog.Logger, sinks ...Sink) *Log {
	return &Log{sinks: sinks, log: log}
}

// Notify writes text to every sink. A failing sink is logged and skipped.
func (l *Log) Notify(ctx context.Context, text string) {
	l.log.Info("ops", "text", text)
	line := constants.LogPrefix + text
	for _, s := range l.sinks {
		if err := s.Write(ctx, line); err != nil {
			l.log.Warn("ops log sink failed", "sink", s.Name(), "err", err)
		}
	}
}

// ChannelSink posts into a Discord channel.
type ChannelSink struct {
	gw        platform.Gateway
	channelID string
}

func NewChannelSink(gw platform.Gateway, channelID string) *ChannelSink {
	return &ChannelSink{gw: gw, channelID: channelID}
}

func (s *ChannelSink) Name() string { return "discord:" + s.channelID }

func (s *ChannelSink) Write(ctx context.Context, text string) error {
	_, err := s.gw.Send(ctx, s.channelID, text)
	return err
}

// TelegramSink mirrors ops lines into a Telegram chat.
type TelegramSink struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramSink(token string, chatID int64) (*TelegramSink, error) {
	return NewTelegramSinkWithEndpoint(token, tgbotapi.APIEndpoint, chatID)
}

// NewTelegramSinkWithEndpoint talks to a custom Bot API endpoint of the form
// "https://host/bot%s/%s".
func NewTelegramSinkWithEndpoint(token, endpoint string, chatID int64) (*TelegramSink, error) {
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram bot api: %w", err)
	}
	return &TelegramSink{api: api, chatID: chatID}, nil
}

func (s *TelegramSink) Name() string { return fmt.Sprintf("telegram:%d", s.chatID) }

func (s *TelegramSink) Write(_ context.Context, text string) error {
	m := tgbotapi.NewMessage(s.chatID, text)
	m.DisableNotification = true
	if _, err := s.api.Send(m); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

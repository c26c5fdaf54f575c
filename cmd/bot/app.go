package main

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"go-training-bot/config"
	"go-training-bot/internal/bot"
	"go-training-bot/internal/db"
	"go-training-bot/internal/logger"
	"go-training-bot/internal/opslog"
	"go-training-bot/internal/platform/discord"
)

// app is everything a sub-command needs, built from one configuration.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	session *discordgo.Session
	gw      *discord.Gateway
	journal *db.Journal
	bot     *bot.Bot
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log := logger.Init(cfg.Log)

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildMessageReactions |
		discordgo.IntentMessageContent
	gw := discord.New(session, cfg.Discord.GuildID)

	var sinks []opslog.Sink
	if cfg.Channels.Log != "" {
		sinks = append(sinks, opslog.NewChannelSink(gw, cfg.Channels.Log))
	}
	if cfg.Telegram.Token != "" && cfg.Telegram.LogChatID != 0 {
		tg, err := opslog.NewTelegramSink(cfg.Telegram.Token, cfg.Telegram.LogChatID)
		if err != nil {
			log.Warn("telegram mirror disabled", "err", err)
		} else {
			sinks = append(sinks, tg)
		}
	}
	ops := opslog.New(log, sinks...)

	a := &app{cfg: cfg, log: log, session: session, gw: gw}
	var journal bot.Journal
	if cfg.Journal.Path != "" {
		a.journal, err = db.Open(cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
		journal = a.journal
	}

	a.bot, err = bot.New(gw, cfg, ops, journal, log)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn("journal close failed", "err", err)
		}
	}
}

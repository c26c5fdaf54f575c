package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"go-training-bot/internal/health"
	"go-training-bot/internal/platform/discord"
	"go-training-bot/internal/schedule"
)

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve commands, events and weekly triggers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx)
		},
	}
}

func (a *app) run(ctx context.Context) error {
	guildID := a.cfg.Discord.GuildID
	a.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.log.Info("✅ connected", "user", r.User.Username)
		a.bot.Started(ctx)
	})
	a.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.GuildID != guildID {
			return
		}
		a.bot.HandleMessage(ctx, discord.ToMessage(m.Message))
	})
	a.session.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberUpdate) {
		if m.GuildID != guildID {
			return
		}
		var before []string
		if m.BeforeUpdate != nil {
			before = append([]string{}, m.BeforeUpdate.Roles...)
		}
		a.bot.OnMemberUpdate(ctx, discord.ToMember(m.Member), before)
	})
	a.session.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
		if m.GuildID != guildID {
			return
		}
		a.bot.OnMemberJoin(ctx, discord.ToMember(m.Member))
	})
	a.session.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
		if m.GuildID != guildID {
			return
		}
		a.bot.OnMemberLeave(ctx, discord.ToMember(m.Member))
	})

	if err := a.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	defer a.session.Close()

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	sched := schedule.New(loc, a.cfg.Schedule.Tick, a.log.With("component", "schedule"))
	for _, t := range a.bot.Triggers() {
		sched.Register(t)
	}
	go func() { _ = sched.Run(ctx) }()

	go func() {
		if err := health.Serve(ctx, a.cfg.HTTP.Addr, a.log); err != nil {
			a.log.Error("liveness server stopped", "err", err)
		}
	}()

	a.log.Info("🤖 bot running", "guild", guildID)
	<-ctx.Done()
	a.log.Info("shutting down")
	return nil
}

// Package constants holds the user-facing texts of the bot.
package constants

import (
	"fmt"
	"strings"
	"time"
)

const (
	MsgNoPermission     = "❌ Keine Berechtigung."
	MsgTrainingCreated  = "✅ Trainingsposts erstellt"
	MsgTestTraining     = "🧪 Test-Trainingsposts erstellt"
	MsgRemindStarted    = "🔄 Erinnerungen werden geprüft …"
	MsgRemindDone       = "🔔 Erinnerung(en) gesendet."
	MsgNoCycle          = "⚠️ Keine aktuellen Trainingsposts gefunden."
	MsgUnknownMember    = "⚠️ Mitglied nicht gefunden."
	MsgNobodyMissing    = "✅ Alle haben für %s abgestimmt."
	MsgBotStarted       = "✅ Bot gestartet"
	MsgMissingConfig    = "❌ %s fehlt"
	MsgChannelCreated   = "✅ Einzelgespräch erstellt für %s"
	MsgChannelDeleted   = "🗑️ Einzelgespräch gelöscht für %s"
	MsgRoleGranted      = "👋 %s ist beigetreten, Rolle %s vergeben"
	MsgCommandError     = "❌ Fehler: %v"
	MsgReminderSummary  = "🔔 Erinnerungen: %d zugestellt, %d übersprungen"
	MsgCycleUnavailable = "❌ Trainingskanal %s nicht erreichbar"
	LogPrefix           = "📝 "
)

// PollPost renders one attendance post; marker is appended on its own line.
func PollPost(label string, date time.Time, marker string) string {
	return fmt.Sprintf("🏋️ **%s, %s**\nReagiere mit 👍 oder 👎\n-# %s", label, date.Format("02.01.2006"), marker)
}

// Announcement pings the member role once the week's posts are up.
func Announcement(roleMention, marker string) string {
	return fmt.Sprintf("📣 %s die Trainingsumfragen für nächste Woche sind online!\n-# %s", roleMention, marker)
}

// Reminder lists the days a member has not voted on yet.
func Reminder(memberMention, channelMention string, missing []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "👋 Hallo %s\n\nBitte stimme **hier** ab:\n👉 %s\n\n", memberMention, channelMention)
	for _, d := range missing {
		sb.WriteString("• " + d + "\n")
	}
	return sb.String()
}

// MissingReport answers the weekday command.
func MissingReport(label string, mentions []string) string {
	if len(mentions) == 0 {
		return fmt.Sprintf(MsgNobodyMissing, label)
	}
	return fmt.Sprintf("📋 Noch nicht abgestimmt für %s:\n%s", label, strings.Join(mentions, "\n"))
}

// Onboarding is the first message in a member's private channel.
func Onboarding(memberMention string) string {
	return fmt.Sprintf("Hallo %s\n\n"+
		"Vielen herzlichen Dank, dass du dich unserem Projekt angeschlossen hast "+
		"und auf lange und erfolgreiche Zeit mit uns zusammenarbeiten willst.\n\n"+
		"Dies ist dein eigener **Einzelgespräche-Channel**. "+
		"Hier kannst du jederzeit vertraulich mit uns sprechen.\n\n"+
		"Alles was hier geschrieben wird, bleibt auch hier. "+
		"Wir bitten dich, dies zu respektieren.\n\n"+
		"Liebe Grüße 🍕", memberMention)
}

// ProbationOnboarding is the first message in a probationary member's channel.
func ProbationOnboarding(memberMention string) string {
	return fmt.Sprintf("Hallo %s\n\nWillkommen zum Probetraining! "+
		"Hier kannst du uns alle Fragen stellen, bevor es richtig losgeht. 🍕", memberMention)
}

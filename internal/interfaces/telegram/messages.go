package telegram

import (
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"referral-bot.backend/internal/domain/entities"
	domainerrors "referral-bot.backend/internal/domain/errors"
)

const (
	textHelp = "Commands:\n" +
		"/start - register and get your referral link\n" +
		"/myrefs - your referrals and rewards\n" +
		"/verify - confirm you joined the channel\n" +
		"/claim - claim a reward code"
	textVerified      = "✅ You are verified! Rewards can now be claimed."
	textPending       = "⏳ Your join request is pending approval. Press Verify again once it is accepted."
	textNotMember     = "❌ You have not joined the channel yet. Join it and press Verify again."
	textThrottled     = "⏱ Please wait a few seconds before trying again."
	textClaimEmpty    = "You have no rewards to claim yet. Keep inviting friends!"
	textClaimLocked   = "🔒 Verify your channel membership before claiming rewards."
	textGrantUsage    = "Usage: /grant <user_id>"
	textInvalidInput  = "⚠️ This request could not be processed. Send /start to begin again."
	textForbidden     = "⛔ This command is for admins only."
	textNotRegistered = "Please send /start first."
	textInternalError = "⚠️ Something went wrong. Please try again later."
)

func mainKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Verify", "verify"),
			tgbotapi.NewInlineKeyboardButtonData("👥 My referrals", "check_refs"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎁 Claim reward", "claim_reward"),
		),
	)
	return &kb
}

var verificationTexts = map[entities.VerificationState]string{
	entities.VerificationUnverified: "not verified",
	entities.VerificationPending:    "pending",
	entities.VerificationVerified:   "verified",
}

func summaryText(s *entities.ReferralSummary, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👥 Referrals: <b>%d/%d</b>\n", s.ReferralCount, s.Threshold)
	fmt.Fprintf(&b, "🎁 Rewards to claim: <b>%d</b>\n", s.Balance)
	fmt.Fprintf(&b, "🛡 Status: %s\n", verificationTexts[s.VerificationState])
	if s.LastCode != "" {
		fmt.Fprintf(&b, "🏷 Last code: <code>%s</code>\n", html.EscapeString(s.LastCode))
	}
	fmt.Fprintf(&b, "\n🔗 Your link:\n%s", html.EscapeString(link))
	return b.String()
}

func welcomeText(ev *Event, res *entities.RegistrationResult, summary string) string {
	name := ev.DisplayName
	if name == "" {
		name = ev.Username
	}
	greeting := "👋 Welcome back"
	if res.Outcome == entities.RegistrationNewUser {
		greeting = "👋 Welcome"
	}
	if name != "" {
		greeting += ", " + html.EscapeString(name)
	}
	return greeting + "!\n\nInvite friends with your personal link and earn rewards.\n\n" + summary
}

func verificationText(outcome entities.VerificationOutcome) string {
	switch outcome {
	case entities.VerificationOutcomeVerified:
		return textVerified
	case entities.VerificationOutcomePendingConfirmed:
		return textPending
	default:
		return textNotMember
	}
}

func claimText(res *entities.ClaimResult) string {
	switch res.Outcome {
	case entities.ClaimClaimed:
		return fmt.Sprintf("🎁 Your reward code: <code>%s</code>\nRewards left: %d",
			html.EscapeString(res.Code), res.Balance)
	case entities.ClaimLocked:
		return textClaimLocked
	default:
		return textClaimEmpty
	}
}

func grantText(res *entities.GrantResult) string {
	if res.Outcome == entities.GrantAlreadyRewarded {
		return fmt.Sprintf("ℹ️ User %d already received a reward.", res.UserID)
	}
	return fmt.Sprintf("✅ Granted <code>%s</code> to user %d.", html.EscapeString(res.Code), res.UserID)
}

func statsText(s *entities.LedgerStats) string {
	return fmt.Sprintf("📊 Stats\nUsers: %d\nVerified: %d\nPending: %d\nReferrals: %d\nRewarded users: %d",
		s.Users, s.VerifiedUsers, s.PendingUsers, s.Referrals, s.RewardedUsers)
}

// errorText maps a failure of action to what the user sees; ok is false for
// faults that should be logged as unexpected
func errorText(action string, err error) (string, bool) {
	switch {
	case errors.Is(err, domainerrors.ErrUserNotRegistered):
		return textNotRegistered, true
	case errors.Is(err, domainerrors.ErrForbidden):
		return textForbidden, true
	case errors.Is(err, domainerrors.ErrInvalidInput):
		if action == ActionGrant {
			return textGrantUsage, true
		}
		return textInvalidInput, true
	default:
		return textInternalError, false
	}
}

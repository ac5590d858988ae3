package usecases

import (
	"fmt"
	"html"
)

func displayName(username, name string) string {
	switch {
	case username != "":
		return "@" + username
	case name != "":
		return name
	default:
		return "a new user"
	}
}

func referralJoinedText(username, name string, count int64, threshold int) string {
	return fmt.Sprintf("👥 Your referral %s just joined!\nReferrals: %d/%d",
		html.EscapeString(displayName(username, name)), count, threshold)
}

func thresholdRewardText(threshold int, code string) string {
	return fmt.Sprintf("🎉 Congratulations! You reached %d referrals.\nYour reward code: <b>%s</b>",
		threshold, html.EscapeString(code))
}

func adminGrantText(code string) string {
	return fmt.Sprintf("🎁 Admin granted a reward: <b>%s</b>", html.EscapeString(code))
}

package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// EventKind tells how an event reached the bot
type EventKind string

const (
	EventCommand     EventKind = "command"
	EventCallback    EventKind = "callback"
	EventJoinRequest EventKind = "join_request"
)

// Actions the handler understands. Callback data is mapped onto the same set.
const (
	ActionStart       = "start"
	ActionMyRefs      = "myrefs"
	ActionGrant       = "grant"
	ActionStats       = "stats"
	ActionVerify      = "verify"
	ActionClaim       = "claim"
	ActionHelp        = "help"
	ActionJoinRequest = "join_request"
)

var commandActions = map[string]string{
	ActionStart:  ActionStart,
	ActionMyRefs: ActionMyRefs,
	ActionGrant:  ActionGrant,
	ActionStats:  ActionStats,
	ActionVerify: ActionVerify,
	ActionClaim:  ActionClaim,
	ActionHelp:   ActionHelp,
}

var callbackActions = map[string]string{
	"verify":       ActionVerify,
	"check_refs":   ActionMyRefs,
	"claim_reward": ActionClaim,
}

// Event is a transport-neutral inbound action
type Event struct {
	UpdateID    int
	Kind        EventKind
	UserID      int64
	ChatID      int64
	Username    string
	DisplayName string
	Action      string
	Argument    string
	CallbackID  string
}

// FromUpdate converts an update into an Event. ok is false for updates the
// bot does not act on (plain text, edits, channel posts, bots).
func FromUpdate(update tgbotapi.Update) (*Event, bool) {
	switch {
	case update.Message != nil:
		return fromMessage(update.UpdateID, update.Message)
	case update.CallbackQuery != nil:
		return fromCallback(update.UpdateID, update.CallbackQuery)
	case update.ChatJoinRequest != nil:
		req := update.ChatJoinRequest
		ev := &Event{
			UpdateID: update.UpdateID,
			Kind:     EventJoinRequest,
			UserID:   req.From.ID,
			ChatID:   req.Chat.ID,
			Action:   ActionJoinRequest,
		}
		fillUser(ev, &req.From)
		return ev, true
	default:
		return nil, false
	}
}

func fromMessage(updateID int, msg *tgbotapi.Message) (*Event, bool) {
	if msg.From == nil || msg.From.IsBot || msg.Chat == nil || !msg.IsCommand() {
		return nil, false
	}
	action, ok := commandActions[strings.ToLower(msg.Command())]
	if !ok {
		action = ActionHelp
	}
	ev := &Event{
		UpdateID: updateID,
		Kind:     EventCommand,
		UserID:   msg.From.ID,
		ChatID:   msg.Chat.ID,
		Action:   action,
		Argument: strings.TrimSpace(msg.CommandArguments()),
	}
	fillUser(ev, msg.From)
	return ev, true
}

func fromCallback(updateID int, cb *tgbotapi.CallbackQuery) (*Event, bool) {
	if cb.From == nil {
		return nil, false
	}
	action, ok := callbackActions[cb.Data]
	if !ok {
		action = ActionHelp
	}
	ev := &Event{
		UpdateID:   updateID,
		Kind:       EventCallback,
		UserID:     cb.From.ID,
		ChatID:     cb.From.ID,
		Action:     action,
		CallbackID: cb.ID,
	}
	if cb.Message != nil && cb.Message.Chat != nil {
		ev.ChatID = cb.Message.Chat.ID
	}
	fillUser(ev, cb.From)
	return ev, true
}

func fillUser(ev *Event, u *tgbotapi.User) {
	ev.Username = u.UserName
	ev.DisplayName = strings.TrimSpace(u.FirstName + " " + u.LastName)
}

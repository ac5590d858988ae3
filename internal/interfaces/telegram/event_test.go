package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commandUpdate(updateID int, userID int64, text string) tgbotapi.Update {
	cmdLen := len(text)
	for i, c := range text {
		if c == ' ' {
			cmdLen = i
			break
		}
	}
	return tgbotapi.Update{
		UpdateID: updateID,
		Message: &tgbotapi.Message{
			Text:     text,
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
			From:     &tgbotapi.User{ID: userID, UserName: "bob", FirstName: "Bob", LastName: "Builder"},
			Chat:     &tgbotapi.Chat{ID: userID},
		},
	}
}

func callbackUpdate(updateID int, userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: updateID,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-1",
			From:    &tgbotapi.User{ID: userID, FirstName: "Ann"},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: userID}},
			Data:    data,
		},
	}
}

func TestFromUpdate_Command(t *testing.T) {
	ev, ok := FromUpdate(commandUpdate(10, 2, "/start ref_1"))
	require.True(t, ok)
	assert.Equal(t, EventCommand, ev.Kind)
	assert.Equal(t, ActionStart, ev.Action)
	assert.Equal(t, "ref_1", ev.Argument)
	assert.Equal(t, int64(2), ev.UserID)
	assert.Equal(t, int64(2), ev.ChatID)
	assert.Equal(t, "bob", ev.Username)
	assert.Equal(t, "Bob Builder", ev.DisplayName)
	assert.Equal(t, 10, ev.UpdateID)

	ev, ok = FromUpdate(commandUpdate(11, 2, "/myrefs"))
	require.True(t, ok)
	assert.Equal(t, ActionMyRefs, ev.Action)
	assert.Empty(t, ev.Argument)

	ev, ok = FromUpdate(commandUpdate(12, 2, "/whatever"))
	require.True(t, ok)
	assert.Equal(t, ActionHelp, ev.Action)
}

func TestFromUpdate_Callback(t *testing.T) {
	cases := map[string]string{
		"verify":       ActionVerify,
		"check_refs":   ActionMyRefs,
		"claim_reward": ActionClaim,
		"unknown":      ActionHelp,
	}
	for data, want := range cases {
		ev, ok := FromUpdate(callbackUpdate(1, 5, data))
		require.True(t, ok, data)
		assert.Equal(t, EventCallback, ev.Kind)
		assert.Equal(t, want, ev.Action, data)
		assert.Equal(t, "cb-1", ev.CallbackID)
		assert.Equal(t, int64(5), ev.ChatID)
	}
}

func TestFromUpdate_JoinRequest(t *testing.T) {
	ev, ok := FromUpdate(tgbotapi.Update{
		UpdateID: 3,
		ChatJoinRequest: &tgbotapi.ChatJoinRequest{
			Chat: tgbotapi.Chat{ID: -100},
			From: tgbotapi.User{ID: 9, UserName: "eve"},
		},
	})
	require.True(t, ok)
	assert.Equal(t, EventJoinRequest, ev.Kind)
	assert.Equal(t, int64(-100), ev.ChatID)
	assert.Equal(t, int64(9), ev.UserID)
}

func TestFromUpdate_Ignored(t *testing.T) {
	plain := tgbotapi.Update{Message: &tgbotapi.Message{
		Text: "hello",
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: 1},
	}}
	_, ok := FromUpdate(plain)
	assert.False(t, ok)

	fromBot := commandUpdate(1, 1, "/start")
	fromBot.Message.From.IsBot = true
	_, ok = FromUpdate(fromBot)
	assert.False(t, ok)

	_, ok = FromUpdate(tgbotapi.Update{EditedMessage: &tgbotapi.Message{}})
	assert.False(t, ok)

	_, ok = FromUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{Data: "verify"}})
	assert.False(t, ok)
}

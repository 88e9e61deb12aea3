package server

import (
	"fmt"
	"strings"
)

// Server-to-client lines are "\r\n"-terminated; prompts end with a "> "
// continuation marker and no terminator, so interactive clients see a
// same-line cursor.
const (
	nicknamePrompt  = "👋 Enter nickname:\r\n> "
	nameTakenPrompt = "❌ Nickname taken, choose another:\r\n> "
	welcomeAlone    = "🎉 Welcome! You are the only user here.\r\n"
)

func formatWelcome(nicknames []string) string {
	if len(nicknames) == 0 {
		return welcomeAlone
	}
	return fmt.Sprintf("🎉 Welcome! %d users online.\r\n👥 Users: %s\r\n",
		len(nicknames), strings.Join(nicknames, ", "))
}

func formatJoin(nickname string) string {
	return fmt.Sprintf("👋 %s joined the chat\r\n", nickname)
}

func formatLeave(nickname string) string {
	return fmt.Sprintf("👋 %s left the chat\r\n", nickname)
}

func formatChat(nickname, message string) string {
	return fmt.Sprintf("💬 %s: %s\r\n", nickname, message)
}

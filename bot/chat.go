package bot

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"lectorium/core/logger"
	"lectorium/core/telegram/middleware"
	"lectorium/flow"
)

func (b *Bot) handleChatStart(c tele.Context) error {
	if b.ai == nil {
		return c.Send("🤖 The AI chat is not configured on this bot.")
	}
	b.machine.Sessions().Begin(conversationKey(c), flow.FlowChat, flow.StepChatting)
	return c.Send(
		"🤖 You are now chatting with the AI assistant.\n"+
			"Send a message, or press "+flow.BackLabel+" to leave.",
		backMenu(),
	)
}

func (b *Bot) handleChatMessage(c tele.Context) error {
	ctx := middleware.Ctx(c)
	prompt := c.Text()
	if prompt == "" {
		return c.Send("❌ The message cannot be empty.")
	}

	_ = c.Notify(tele.Typing)

	reply, err := b.ai.Reply(ctx, prompt)
	if err != nil {
		logger.Error(ctx, "bot", "chat passthrough failed", slog.Any("err", err))
		return c.Send("⚠️ Failed to reach the AI service. Try again later.")
	}
	return c.Send(reply)
}

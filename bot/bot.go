// Package bot implements the interactive Telegram surface: menu navigation,
// lecture browsing and delivery, the admin conversations and the AI chat
// mode. It adapts telebot updates into the flow package's typed inputs and
// renders the outcomes back as messages and keyboards.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"lectorium/core/config"
	"lectorium/core/logger"
	"lectorium/core/telegram"
	"lectorium/core/telegram/middleware"
	"lectorium/flow"
	"lectorium/storage"
)

// Assistant is the text-in/text-out chat passthrough.
type Assistant interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

// Bot wires the lecture store and the conversation machine into telebot
// routes.
type Bot struct {
	cfg     *config.Config
	store   *storage.LectureStore
	machine *flow.Machine
	ai      Assistant

	reg *telegram.Registry

	mu sync.RWMutex
	tg *tele.Bot
}

// New builds the bot and registers all of its routes. The assistant may be
// nil; the chat button then reports the feature as unavailable.
func New(cfg *config.Config, store *storage.LectureStore, machine *flow.Machine, assistant Assistant) *Bot {
	b := &Bot{
		cfg:     cfg,
		store:   store,
		machine: machine,
		ai:      assistant,
		reg:     telegram.NewRegistry(),
	}
	b.register()
	return b
}

func (b *Bot) register() {
	reg := b.reg

	reg.Command(telegram.Command{Name: "/start", Description: "Show the main menu", Handler: b.handleStart})
	reg.Command(telegram.Command{Name: "/help", Description: "How to use the bot", Handler: b.handleHelp})

	reg.TextIntercept = b.interceptText
	reg.TextFallback = b.handleUnknownText

	reg.Text(btnLectures, false, b.handleLectures)
	reg.Text(btnHelp, false, b.handleHelp)
	reg.Text(btnAbout, false, b.handleAbout)
	reg.Text(btnChat, false, b.handleChatStart)
	reg.Text(btnAddLecture, true, b.handleAddLecture)
	reg.Text(btnAddFile, true, b.handleAddFile)
	reg.Text(btnDatabase, true, b.handleDatabase)
	reg.TextPrefix(coursePrefix, b.handleCourseSelection)

	reg.Callback(cbShowLecture, b.handleShowLecture)
	reg.Callback(cbGetFile, b.handleGetFile)
	reg.Callback(cbViewPhoto, b.handleViewPhoto)
	reg.Callback(cbDeleteAsk, middleware.AdminOnly(b.adminOpts(), b.handleDeleteAsk))
	reg.Callback(cbDeleteYes, middleware.AdminOnly(b.adminOpts(), b.handleDeleteConfirm))
	reg.Callback(cbDeleteNo, middleware.AdminOnly(b.adminOpts(), b.handleDeleteCancel))

	for _, endpoint := range []string{tele.OnAudio, tele.OnVoice, tele.OnDocument, tele.OnPhoto} {
		reg.Endpoint(endpoint, b.handleMedia)
	}
}

// Middlewares returns the global middleware chain in application order.
func (b *Bot) Middlewares() []telegram.Middleware {
	mws := []telegram.Middleware{
		{Name: "recover", Use: middleware.Recover},
		{Name: "logging", Use: middleware.Logging},
	}
	if b.cfg.RateLimit.IntervalMS > 0 {
		mws = append(mws, telegram.Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimit(middleware.RateLimitOptions{
				Interval:        time.Duration(b.cfg.RateLimit.IntervalMS) * time.Millisecond,
				ExcludeCallback: b.cfg.RateLimit.ExcludeCallback,
			}),
		})
	}
	return mws
}

// Routes returns the flattened route list for the bot runtime.
func (b *Bot) Routes() []telegram.Route {
	return b.reg.Routes(b.adminOpts())
}

// OnStart publishes the command menu and keeps the bot handle for outbound
// delivery from the web API.
func (b *Bot) OnStart(ctx context.Context, tg *tele.Bot) error {
	b.mu.Lock()
	b.tg = tg
	b.mu.Unlock()

	if err := tg.SetCommands(b.reg.MenuCommands()); err != nil {
		logger.BOT.Warn("set commands failed",
			slog.String("event", "bot.commands"),
			slog.Any("err", err),
		)
	}
	return nil
}

// SendFile delivers an opaque file reference to a Telegram user as a
// document. Used by the web API's file-request path.
func (b *Bot) SendFile(ctx context.Context, recipient int64, fileRef string) error {
	b.mu.RLock()
	tg := b.tg
	b.mu.RUnlock()
	if tg == nil {
		return errors.New("bot: not started")
	}

	doc := &tele.Document{File: tele.File{FileID: fileRef}, Caption: "📂 Your file from the web app"}
	_, err := tg.Send(&tele.User{ID: recipient}, doc)
	return err
}

func (b *Bot) adminOpts() middleware.AdminOptions {
	return middleware.AdminOptions{
		IsAdmin: b.cfg.Telegram.IsAdmin,
		OnReject: func(c tele.Context) error {
			if c.Callback() != nil {
				return c.Respond(&tele.CallbackResponse{Text: "Admins only."})
			}
			return nil
		},
	}
}

func (b *Bot) isAdmin(c tele.Context) bool {
	user := c.Sender()
	return user != nil && b.cfg.Telegram.IsAdmin(user.ID)
}

func conversationKey(c tele.Context) flow.Key {
	key := flow.Key{}
	if user := c.Sender(); user != nil {
		key.UserID = user.ID
	}
	if chat := c.Chat(); chat != nil {
		key.ChatID = chat.ID
	}
	return key
}

// interceptText runs before menu-label matching so an active conversation
// keeps receiving its input even when it collides with a button label.
func (b *Bot) interceptText(c tele.Context) (bool, error) {
	key := conversationKey(c)

	if c.Text() == flow.BackLabel {
		return true, b.handleBack(c)
	}

	switch b.machine.Sessions().ActiveFlow(key) {
	case flow.FlowAddLecture, flow.FlowAddFile:
		if !b.isAdmin(c) {
			b.machine.Cancel(key)
			return false, nil
		}
		return true, b.dispatchFlow(c, flow.Input{Text: c.Text()})
	case flow.FlowChat:
		return true, b.handleChatMessage(c)
	}
	return false, nil
}

// dispatchFlow feeds one input into the conversation machine and renders
// the resulting message and keyboard.
func (b *Bot) dispatchFlow(c tele.Context, in flow.Input) error {
	ctx := middleware.Ctx(c)
	out, err := b.machine.Handle(ctx, conversationKey(c), in)
	if err != nil {
		logger.Error(ctx, "bot", "flow aborted", slog.Any("err", err))
	}
	return b.renderOutcome(c, out)
}

func (b *Bot) renderOutcome(c tele.Context, out flow.Outcome) error {
	switch out.Screen {
	case flow.ScreenMenu:
		return c.Send(out.Text, mainMenu(b.isAdmin(c)))
	case flow.ScreenBack:
		return c.Send(out.Text, backMenu())
	case flow.ScreenTopics:
		return c.Send(out.Text, topicsMenu(out.Topics))
	case flow.ScreenKinds:
		return c.Send(out.Text, kindsMenu())
	default:
		return c.Send(out.Text)
	}
}

// handleBack cancels whatever conversation is in progress and reshows the
// main menu.
func (b *Bot) handleBack(c tele.Context) error {
	b.machine.Cancel(conversationKey(c))
	return c.Send("Main menu:", mainMenu(b.isAdmin(c)))
}

func (b *Bot) handleStart(c tele.Context) error {
	b.machine.Cancel(conversationKey(c))
	admin := b.isAdmin(c)
	return c.Send(welcomeText(admin), mainMenu(admin))
}

func (b *Bot) handleHelp(c tele.Context) error {
	return c.Send(helpText())
}

func (b *Bot) handleAbout(c tele.Context) error {
	return c.Send(aboutText())
}

func (b *Bot) handleUnknownText(c tele.Context) error {
	return c.Send("❌ Unknown command. Use the menu buttons.", mainMenu(b.isAdmin(c)))
}

// handleMedia routes attachments into an active upload step and turns any
// other media message into a gentle nudge back to the menu.
func (b *Bot) handleMedia(c tele.Context) error {
	key := conversationKey(c)
	if b.machine.Active(key) && b.isAdmin(c) {
		return b.dispatchFlow(c, inputFromMessage(c.Message()))
	}
	return c.Send("❌ I only work with text commands here. Use the menu buttons.", mainMenu(b.isAdmin(c)))
}

func inputFromMessage(msg *tele.Message) flow.Input {
	if msg == nil {
		return flow.Input{}
	}
	in := flow.Input{Text: msg.Text}
	if msg.Audio != nil {
		in.Audio = msg.Audio.FileID
	}
	if msg.Voice != nil {
		in.Voice = msg.Voice.FileID
	}
	if msg.Document != nil {
		in.Document = msg.Document.FileID
	}
	if msg.Photo != nil {
		in.Photos = append(in.Photos, flow.Photo{
			Ref:    msg.Photo.FileID,
			Width:  msg.Photo.Width,
			Height: msg.Photo.Height,
		})
	}
	return in
}

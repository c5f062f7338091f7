package telegram

import (
	"log/slog"
	"sort"
	"strings"

	tele "gopkg.in/telebot.v4"

	"lectorium/core/logger"
	"lectorium/core/telegram/middleware"
)

// Command describes a slash command with its metadata.
type Command struct {
	Name        string
	Description string
	AdminOnly   bool
	Handler     tele.HandlerFunc
}

// TextRoute matches incoming text either exactly or by prefix.
type TextRoute struct {
	Label     string
	Prefix    bool
	AdminOnly bool
	Handler   tele.HandlerFunc
}

// Registry collects commands, text-button routes and callback handlers and
// turns them into the flat route list the bot runtime consumes.
type Registry struct {
	commands  []Command
	texts     []TextRoute
	callbacks map[string]tele.HandlerFunc
	cbOrder   []string
	endpoints []Route

	// TextIntercept runs before label matching; a multi-step conversation
	// claims the text here so menu labels cannot hijack its input.
	TextIntercept func(c tele.Context) (bool, error)

	// TextFallback handles text that matched no command, button or flow.
	TextFallback tele.HandlerFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{callbacks: make(map[string]tele.HandlerFunc)}
}

// Command registers a slash command. Invalid registrations are skipped with
// a warning rather than failing startup.
func (r *Registry) Command(cmd Command) {
	if cmd.Name == "" || !strings.HasPrefix(cmd.Name, "/") || cmd.Handler == nil {
		logger.TG.Warn("register command skipped",
			slog.String("event", "tg.register.skip"),
			slog.String("name", cmd.Name),
		)
		return
	}
	r.commands = append(r.commands, cmd)
}

// Text registers a handler for an exact menu-button label.
func (r *Registry) Text(label string, adminOnly bool, h tele.HandlerFunc) {
	if label == "" || h == nil {
		return
	}
	r.texts = append(r.texts, TextRoute{Label: label, AdminOnly: adminOnly, Handler: h})
}

// TextPrefix registers a handler for text starting with the given prefix.
func (r *Registry) TextPrefix(prefix string, h tele.HandlerFunc) {
	if prefix == "" || h == nil {
		return
	}
	r.texts = append(r.texts, TextRoute{Label: prefix, Prefix: true, Handler: h})
}

// Callback registers a handler for an inline button unique key.
func (r *Registry) Callback(unique string, h tele.HandlerFunc) {
	if unique == "" || h == nil {
		return
	}
	if _, exists := r.callbacks[unique]; exists {
		logger.TG.Warn("duplicate callback key",
			slog.String("event", "tg.register.duplicate"),
			slog.String("cb_key", unique),
		)
		return
	}
	r.callbacks[unique] = h
	r.cbOrder = append(r.cbOrder, unique)
}

// Endpoint registers a raw telebot endpoint, for media and other
// non-text updates.
func (r *Registry) Endpoint(endpoint any, h tele.HandlerFunc) {
	if endpoint == nil || h == nil {
		return
	}
	r.endpoints = append(r.endpoints, Route{Endpoint: endpoint, Handler: h})
}

// MenuCommands returns the visible command list for Bot.SetCommands.
func (r *Registry) MenuCommands() []tele.Command {
	var list []tele.Command
	for _, cmd := range r.commands {
		if cmd.AdminOnly {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(cmd.Name, "/"), Description: cmd.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// Routes flattens the registry into telebot routes, wrapping admin-only
// entries with the access check.
func (r *Registry) Routes(adminOpts middleware.AdminOptions) []Route {
	routes := make([]Route, 0, len(r.commands)+len(r.cbOrder)+len(r.endpoints)+1)

	for _, cmd := range r.commands {
		h := cmd.Handler
		if cmd.AdminOnly {
			h = middleware.AdminOnly(adminOpts, h)
		}
		routes = append(routes, Route{Endpoint: cmd.Name, Handler: h})
	}

	routes = append(routes, Route{Endpoint: tele.OnText, Handler: r.dispatchText(adminOpts)})

	for _, key := range r.cbOrder {
		btn := tele.Btn{Unique: key}
		routes = append(routes, Route{Endpoint: &btn, Handler: r.callbacks[key]})
	}

	routes = append(routes, r.endpoints...)

	logger.TG.Info("routes wired",
		slog.String("event", "tg.wire"),
		slog.Int("commands", len(r.commands)),
		slog.Int("texts", len(r.texts)),
		slog.Int("callbacks", len(r.cbOrder)),
	)
	return routes
}

func (r *Registry) dispatchText(adminOpts middleware.AdminOptions) tele.HandlerFunc {
	return func(c tele.Context) error {
		text := c.Text()
		if r.TextIntercept != nil {
			handled, err := r.TextIntercept(c)
			if handled || err != nil {
				return err
			}
		}
		for _, route := range r.texts {
			matched := false
			if route.Prefix {
				matched = strings.HasPrefix(text, route.Label)
			} else {
				matched = text == route.Label
			}
			if !matched {
				continue
			}
			h := route.Handler
			if route.AdminOnly {
				h = middleware.AdminOnly(adminOpts, h)
			}
			return h(c)
		}
		if r.TextFallback != nil {
			return r.TextFallback(c)
		}
		return nil
	}
}

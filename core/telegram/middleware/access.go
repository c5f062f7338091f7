package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions defines how admin-only checks behave.
type AdminOptions struct {
	IsAdmin  func(userID int64) bool
	OnReject tele.HandlerFunc
}

// AdminOnly wraps a handler so that only admin users reach it. Non-admin
// senders get the OnReject handler, when set, and are otherwise ignored.
func AdminOnly(opts AdminOptions, handler tele.HandlerFunc) tele.HandlerFunc {
	if opts.IsAdmin == nil {
		return handler
	}
	return func(c tele.Context) error {
		user := c.Sender()
		if user == nil || !opts.IsAdmin(user.ID) {
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
		return handler(c)
	}
}

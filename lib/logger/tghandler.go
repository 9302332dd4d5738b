package logger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"rbreg/internal/bot"
)

// TelegramHandler is a slog.Handler that forwards records at or above
// minLevel to the ops Telegram chat, after passing them to the wrapped
// handler.
type TelegramHandler struct {
	handler  slog.Handler
	bot      *bot.TgBot
	minLevel slog.Level
	mu       sync.Mutex
	attrs    []slog.Attr
	group    string
}

func NewTelegramHandler(handler slog.Handler, bot *bot.TgBot, minLevel slog.Level) *TelegramHandler {
	return &TelegramHandler{
		handler:  handler,
		bot:      bot,
		minLevel: minLevel,
		attrs:    make([]slog.Attr, 0),
	}
}

func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.minLevel || h.handler.Enabled(ctx, level)
}

func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	if err := h.handler.Handle(ctx, record); err != nil {
		return err
	}
	if record.Level < h.minLevel || h.bot == nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var msg string
	if h.group != "" {
		msg = fmt.Sprintf("*%s* `%s.%s`", record.Level.String(), h.group, record.Message)
	} else {
		msg = fmt.Sprintf("*%s* `%s`", record.Level.String(), record.Message)
	}
	for _, attr := range h.attrs {
		if attr.Key == "error" {
			msg += fmt.Sprintf("\n%s: ```error %v ```", attr.Key, attr.Value)
		} else {
			msg += bot.Sanitize(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
		}
	}
	record.Attrs(func(attr slog.Attr) bool {
		msg += bot.Sanitize(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
		return true
	})

	h.bot.SendMessageWithLevel(msg, record.Level)
	return nil
}

func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &TelegramHandler{
		handler:  h.handler.WithAttrs(attrs),
		bot:      h.bot,
		minLevel: h.minLevel,
		attrs:    newAttrs,
		group:    h.group,
	}
}

func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &TelegramHandler{
		handler:  h.handler.WithGroup(name),
		bot:      h.bot,
		minLevel: h.minLevel,
		attrs:    h.attrs,
		group:    group,
	}
}

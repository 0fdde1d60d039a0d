package core

import (
	"context"
	"time"
)

const (
	textStarted   = "✅ Bot started and listening for updates."
	textKeepAlive = "🚀 Bot is active and running!"
)

// runKeepAlive tells the admin the bot started and then repeats a short
// notice every keepAliveInterval so a dead bot is noticed. It returns
// when ctx is done.
func (n *DeskNode) runKeepAlive(ctx context.Context) {
	n.notifyAdmin(ctx, textStarted)

	ticker := time.NewTicker(n.keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n.notifyAdmin(ctx, textKeepAlive)
		case <-ctx.Done():
			return
		}
	}
}

func (n *DeskNode) notifyAdmin(ctx context.Context, text string) {
	if _, err := n.gw.SendText(ctx, n.adminChat, text, nil); err != nil {
		log.Errorf("Error sending keep-alive to admin: %s", err)
		return
	}
	log.Debug("Keep-alive sent")
}

package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/zweiadr/gw2advisor/cache"
	"go.uber.org/zap"
)

// Event is the wire shape published for SSE consumers.
type Event struct {
	Kind    string `json:"kind"` // message | abort | refresh | clear
	Message string `json:"message,omitempty"`
}

// PubSubListener bridges broadcasts onto a cache.PubSub channel so SSE
// clients (possibly on another instance, via Redis) can follow progress.
type PubSubListener struct {
	ps      cache.PubSub
	channel string
	logger  *zap.Logger
}

// NewPubSubListener creates a listener publishing to the given channel.
func NewPubSubListener(ps cache.PubSub, channel string, logger *zap.Logger) *PubSubListener {
	return &PubSubListener{ps: ps, channel: channel, logger: logger}
}

func (l *PubSubListener) publish(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.ps.Publish(ctx, l.channel, string(payload)); err != nil {
		l.logger.Warn("progress publish failed", zap.Error(err))
	}
}

func (l *PubSubListener) OnMessage(message string) {
	l.publish(Event{Kind: "message", Message: message})
}

func (l *PubSubListener) OnAbort() {
	l.publish(Event{Kind: "abort"})
}

func (l *PubSubListener) OnRefresh() {
	l.publish(Event{Kind: "refresh"})
}

func (l *PubSubListener) OnClear() {
	l.publish(Event{Kind: "clear"})
}

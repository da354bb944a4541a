package messaging

import "go.uber.org/zap"

// ZapListener logs every broadcast through a zap logger.
type ZapListener struct {
	NopListener
	logger *zap.Logger
}

// NewZapListener creates a listener writing to the given logger.
func NewZapListener(logger *zap.Logger) *ZapListener {
	return &ZapListener{logger: logger}
}

func (l *ZapListener) OnMessage(message string) {
	l.logger.Info("progress", zap.String("message", message))
}

func (l *ZapListener) OnAbort() {
	l.logger.Info("load aborted")
}

func (l *ZapListener) OnRefresh() {
	l.logger.Info("advice refreshed")
}

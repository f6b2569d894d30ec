package collab

import (
	"context"

	"go.uber.org/zap"
)

type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}

// LogNotifier writes notifications to the log instead of sending them.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, to, subject, body string) error {
	n.logger.Info("notification", zap.String("to", to), zap.String("subject", subject), zap.String("body", body))
	return nil
}

// Dispatch sends in the background. Failures are logged and dropped.
func Dispatch(n Notifier, logger *zap.Logger, to, subject, body string) {
	if n == nil || to == "" {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		if err := n.Notify(context.Background(), to, subject, body); err != nil {
			logger.Warn("notification failed", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		}
	}()
}

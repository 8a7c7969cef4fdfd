package consumerWorker

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"eventhub/internal/dto"
	"eventhub/internal/mailer"
	"eventhub/internal/rabbit"
)

// Reader drains the notification queue into the mailer. It is the only
// background goroutine in the service.
type Reader struct {
	RMQ    *rabbit.Client
	mailer *mailer.Mailer
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, m *mailer.Mailer) *Reader {
	return &Reader{
		RMQ:    rmq,
		mailer: m,
		done:   make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("notification reader started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			var msg dto.NotificationMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().
					Err(err).
					Msgf("failed to unmarshal notification: %s", string(body))
				return err
			}

			zlog.Logger.Info().
				Str("kind", msg.Kind).
				Int("recipients", len(msg.Emails)).
				Msg("received notification message")

			if err := r.mailer.SendNotification(&msg); err != nil {
				// Mail failure is not requeue-worthy; the mutation the
				// notification describes already committed.
				zlog.Logger.Warn().
					Err(err).
					Str("kind", msg.Kind).
					Msg("failed to deliver notification email")
			}
			return nil
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("notification reader stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

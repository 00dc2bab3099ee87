package realtime

import (
	"context"
	"encoding/json"
	"time"

	"festival-chat-api/config/logger"
	"github.com/nats-io/nats.go"
)

// NatsBroker fans envelopes out through one NATS subject that every instance subscribes to.
type NatsBroker struct {
	conn    *nats.Conn
	subject string
	sub     *nats.Subscription
	Log     *logger.AppLogger
}

func NewNatsBroker(url, subjectPrefix string, log *logger.AppLogger) (*NatsBroker, error) {
	conn, err := nats.Connect(url,
		nats.Name("festival-chat-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WS.Warning.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WS.Info.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, err
	}
	return NewNatsBrokerWithConn(conn, subjectPrefix, log), nil
}

func NewNatsBrokerWithConn(conn *nats.Conn, subjectPrefix string, log *logger.AppLogger) *NatsBroker {
	if subjectPrefix == "" {
		subjectPrefix = "festchat"
	}
	return &NatsBroker{conn: conn, subject: subjectPrefix + ".fanout", Log: log}
}

func (b *NatsBroker) Subject() string {
	return b.subject
}

func (b *NatsBroker) Publish(_ context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.conn.Publish(b.subject, data)
}

func (b *NatsBroker) Subscribe(deliver func(Envelope)) error {
	sub, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			b.Log.WS.Error.Error().Err(err).Msg("Dropping malformed fanout envelope")
			return
		}
		deliver(env)
	})
	if err != nil {
		return err
	}
	b.sub = sub
	return nil
}

func (b *NatsBroker) Close() error {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	return b.conn.Drain()
}

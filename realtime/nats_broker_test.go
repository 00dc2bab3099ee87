package realtime

import (
	"context"
	"testing"
	"time"

	"festival-chat-api/config/logger"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runNats(t *testing.T) string {
	t.Helper()
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	srv := natsserver.RunServer(&opts)
	t.Cleanup(srv.Shutdown)
	return srv.ClientURL()
}

func natsBroker(t *testing.T, url string) *NatsBroker {
	t.Helper()
	broker, err := NewNatsBroker(url, "festtest", logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = broker.Close() })
	return broker
}

func receive(t *testing.T, envelopes <-chan Envelope) Envelope {
	t.Helper()
	select {
	case env := <-envelopes:
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("no envelope arrived over NATS")
		return Envelope{}
	}
}

func TestNatsBrokerCarriesEnvelopesBetweenInstances(t *testing.T) {
	url := runNats(t)
	publisher := natsBroker(t, url)
	subscriber := natsBroker(t, url)
	assert.Equal(t, "festtest.fanout", subscriber.Subject())

	envelopes := make(chan Envelope, 4)
	require.NoError(t, subscriber.Subscribe(func(env Envelope) { envelopes <- env }))
	require.NoError(t, subscriber.conn.Flush())

	payload, err := Encode(EventLeftChat, nil)
	require.NoError(t, err)
	sent := Envelope{Target: TargetEvict, Key: RoomName("c1"), User: "bob", Payload: payload}
	require.NoError(t, publisher.Publish(context.Background(), sent))

	got := receive(t, envelopes)
	assert.Equal(t, sent.Target, got.Target)
	assert.Equal(t, sent.Key, got.Key)
	assert.Equal(t, sent.User, got.User)
	assert.JSONEq(t, string(payload), string(got.Payload))
}

func TestNatsBrokerDropsMalformedMessages(t *testing.T) {
	url := runNats(t)
	broker := natsBroker(t, url)

	envelopes := make(chan Envelope, 4)
	require.NoError(t, broker.Subscribe(func(env Envelope) { envelopes <- env }))
	require.NoError(t, broker.conn.Flush())

	require.NoError(t, broker.conn.Publish(broker.Subject(), []byte("not json")))
	payload, err := Encode(EventUserOnline, nil)
	require.NoError(t, err)
	require.NoError(t, broker.Publish(context.Background(), Envelope{Target: TargetAll, Payload: payload}))

	assert.Equal(t, TargetAll, receive(t, envelopes).Target)
	select {
	case extra := <-envelopes:
		t.Fatalf("unexpected envelope %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNatsBrokerFeedsTheHub(t *testing.T) {
	url := runNats(t)
	log := logger.NewNopLogger()
	hub := NewHub(log)
	local := natsBroker(t, url)
	remote := natsBroker(t, url)
	require.NoError(t, local.Subscribe(hub.Deliver))
	require.NoError(t, local.conn.Flush())

	bob := NewClient("bob", "Bob", 8)
	hub.Register(bob)
	hub.Join(bob, RoomName("c1"))

	payload, err := Encode(EventNewMessage, nil)
	require.NoError(t, err)
	require.NoError(t, remote.Publish(context.Background(), Envelope{Target: TargetRoom, Key: RoomName("c1"), Payload: payload}))

	assert.Eventually(t, func() bool { return len(bob.Outbox()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{EventNewMessage}, drain(t, bob))
}

func TestNatsBrokerDefaultSubject(t *testing.T) {
	url := runNats(t)
	broker := natsBroker(t, url)
	assert.Equal(t, "festchat.fanout", NewNatsBrokerWithConn(broker.conn, "", logger.NewNopLogger()).Subject())
}

package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ChangeChannel is the Redis pub/sub channel shared by all replicas.
const ChangeChannel = "cantina:changes"

type bridgeMessage struct {
	Origin string      `json:"origin"`
	Event  ChangeEvent `json:"event"`
}

// RedisBridge republishes committed local changes on ChangeChannel and feeds
// changes committed by other replicas to local subscribers, so listeners
// also hear about writes they did not make.
type RedisBridge struct {
	rdb    *redis.Client
	store  *EntityStore
	origin string
	pubsub *redis.PubSub
	outbox chan []byte

	unsubscribe func()
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// StartRedisBridge subscribes to ChangeChannel and hooks into store. The
// bridge is closed together with the store.
func StartRedisBridge(ctx context.Context, rdb *redis.Client, store *EntityStore) (*RedisBridge, error) {
	pubsub := rdb.Subscribe(ctx, ChangeChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	b := &RedisBridge{
		rdb:    rdb,
		store:  store,
		origin: uuid.NewString(),
		pubsub: pubsub,
		outbox: make(chan []byte, 256),
		cancel: cancel,
	}
	b.unsubscribe = store.Subscribe(KindAny, b.forward)

	b.wg.Add(2)
	go b.publishLoop(ctx)
	go b.receiveLoop()

	store.OnClose(b.Close)
	log.Info().Str("origin", b.origin).Msg("change bridge: listening on " + ChangeChannel)
	return b, nil
}

func (b *RedisBridge) forward(ev ChangeEvent) {
	if ev.Remote {
		return
	}
	data, err := json.Marshal(bridgeMessage{Origin: b.origin, Event: ev})
	if err != nil {
		log.Error().Err(err).Msg("change bridge: marshal event")
		return
	}
	select {
	case b.outbox <- data:
	default:
		log.Warn().Str("kind", string(ev.Kind)).Str("id", ev.ID).Msg("change bridge: outbox full, event dropped")
	}
}

func (b *RedisBridge) publishLoop(ctx context.Context) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-b.outbox:
			if err := b.rdb.Publish(ctx, ChangeChannel, data).Err(); err != nil {
				log.Warn().Err(err).Msg("change bridge: publish failed")
			}
		}
	}
}

func (b *RedisBridge) receiveLoop() {
	defer b.wg.Done()
	for msg := range b.pubsub.Channel() {
		var m bridgeMessage
		if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
			log.Warn().Err(err).Msg("change bridge: invalid message")
			continue
		}
		if m.Origin == b.origin {
			continue
		}
		m.Event.Remote = true
		b.store.bus.publish(m.Event)
	}
}

// Close stops both loops. Safe to call more than once.
func (b *RedisBridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.unsubscribe()
		b.cancel()
		err = b.pubsub.Close()
		b.wg.Wait()
	})
	return err
}

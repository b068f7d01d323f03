// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/shelfmark/internal/config"
)

// Transport names.
const (
	TransportMemory = "memory"
	TransportNATS   = "nats"
)

// Transport is a paired publisher and subscriber on one bus.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	name       string
}

// Name returns the transport name.
func (t *Transport) Name() string {
	return t.name
}

// Close closes the publisher and the subscriber.
func (t *Transport) Close() error {
	var errs []error
	if t.Publisher != nil {
		if err := t.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	// gochannel uses one value for both sides
	if t.Subscriber != nil && any(t.Subscriber) != any(t.Publisher) {
		if err := t.Subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	return errors.Join(errs...)
}

// NewTransport builds the transport selected by cfg.Transport.
func NewTransport(ctx context.Context, cfg *config.EventsConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	switch cfg.Transport {
	case TransportMemory, "":
		return NewMemoryTransport(logger), nil
	case TransportNATS:
		return NewNATSTransport(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown event transport %q", cfg.Transport)
	}
}

// NewMemoryTransport returns an in-process transport. Messages published
// while no handler is subscribed are dropped.
func NewMemoryTransport(logger watermill.LoggerAdapter) *Transport {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, logger)

	return &Transport{Publisher: pubSub, Subscriber: pubSub, name: TransportMemory}
}

// NewNATSTransport connects to NATS JetStream, ensures the event stream
// exists and returns a publisher and a queue-group subscriber bound to it.
func NewNATSTransport(ctx context.Context, cfg *config.EventsConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("shelfmark"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	if err := provisionStream(ctx, cfg.NATSURL); err != nil {
		return nil, err
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.NATSURL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			AckAsync:      false,
			DurablePrefix: cfg.QueueGroup,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.BindStream(StreamName),
				natsgo.DeliverNew(),
				natsgo.AckExplicit(),
			},
		},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}

	return &Transport{Publisher: pub, Subscriber: sub, name: TransportNATS}, nil
}

func provisionStream(ctx context.Context, url string) error {
	nc, err := natsgo.Connect(url, natsgo.Name("shelfmark-provisioner"))
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return EnsureStream(ctx, js, DefaultStreamConfig())
}

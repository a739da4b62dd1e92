package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/channels/gochannel"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/channels/kafka"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/eventbus"
)

// NewEventBus creates the execution queue for the given provider. "kafka" is
// the production broker; "gochannel" keeps everything in-process for
// development and single-node deployments.
func NewEventBus(provider, serviceName string, logger *slog.Logger) eventbus.EventBus {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "gochannel", "":
		pub, sub := gochannel.CreateChannel(wmLogger)

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}

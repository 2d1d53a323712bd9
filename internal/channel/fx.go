package channel

import (
	"github.com/steeplehq/steeple/internal/channel/domain"
	"github.com/steeplehq/steeple/internal/channel/repository"
	"github.com/steeplehq/steeple/internal/channel/service"
	"github.com/steeplehq/steeple/internal/realtime"
	"go.uber.org/fx"
)

var Module = fx.Module("channel.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(newRegistryBroadcaster),
	fx.Provide(service.NewService),
)

// registryBroadcaster bridges stored messages onto the realtime fanout
// registry.
type registryBroadcaster struct {
	registry *realtime.Registry
}

func newRegistryBroadcaster(registry *realtime.Registry) domain.Broadcaster {
	return &registryBroadcaster{registry: registry}
}

func (b *registryBroadcaster) BroadcastMessage(message *domain.Message) {
	b.registry.Broadcast(message.ChannelID, realtime.ServerFrame{
		Type:      realtime.FrameMessage,
		ChannelID: message.ChannelID.String(),
		Payload:   message,
	})
}

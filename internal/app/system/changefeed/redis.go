// internal/app/system/changefeed/redis.go
package changefeed

import (
	"context"
	"encoding/json"
	"io"

	"github.com/dalemusser/folderforge/internal/domain/models"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultChannelPrefix prefixes the per-template pub/sub channel.
const DefaultChannelPrefix = "folderforge:folders:"

// RedisFeed publishes and receives folder changes over Redis pub/sub.
// It implements both Publisher and the editor's ChangeFeed.
type RedisFeed struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

// NewRedisFeed creates a feed on client. An empty prefix uses DefaultChannelPrefix.
func NewRedisFeed(client *redis.Client, prefix string, log *zap.Logger) *RedisFeed {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisFeed{client: client, prefix: prefix, log: log}
}

// Channel returns the channel name for templateID.
func (f *RedisFeed) Channel(templateID string) string {
	return f.prefix + templateID
}

// Publish sends ev to every subscriber of templateID.
func (f *RedisFeed) Publish(ctx context.Context, templateID string, ev models.FolderChange) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, f.Channel(templateID), payload).Err()
}

// Subscribe waits for the subscription to be confirmed before returning.
func (f *RedisFeed) Subscribe(ctx context.Context, templateID string, fn func(models.FolderChange)) (io.Closer, error) {
	ps := f.client.Subscribe(ctx, f.Channel(templateID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel, close: ps.Close}
	ch := ps.Channel()
	log := f.log.With(zap.String("template_id", templateID))

	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev models.FolderChange
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn("decode folder change", zap.Error(err))
					continue
				}
				fn(ev)
			}
		}
	}()
	return sub, nil
}

package realtime

import (
	"context"
)

type Bus interface {
	Publish(ctx context.Context, ev ProgressEvent) error
	StartForwarder(ctx context.Context, onEv func(ev ProgressEvent)) error
	Close() error
}

package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/redis/go-redis/v9"
)

// MonitorRedis logs redis dials and commands at debug level.
func MonitorRedis(r redis.UniversalClient, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	r.AddHook(redisLog{logger: logger})
}

type redisLog struct {
	logger *slog.Logger
}

func (l redisLog) DialHook(hook redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := hook(ctx, network, addr)
		if err != nil {
			l.logger.WarnContext(ctx, fmt.Sprintf("redis: dial %s %s failed", network, addr), "error", err)
			return conn, err
		}
		l.logger.DebugContext(ctx, fmt.Sprintf("redis: dialed %s %s", network, addr))
		return conn, nil
	}
}

func (l redisLog) ProcessHook(hook redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := hook(ctx, cmd)
		l.logger.DebugContext(ctx, fmt.Sprintf("redis: processed <%s>", cmd.Name()), "error", err)
		return err
	}
}

func (l redisLog) ProcessPipelineHook(hook redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := hook(ctx, cmds)
		l.logger.DebugContext(ctx, fmt.Sprintf("redis: pipeline processed %d commands", len(cmds)), "error", err)
		return err
	}
}

package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"github.com/taranpreet09/Event-Management-System/pkg/broker"
	"github.com/taranpreet09/Event-Management-System/pkg/config"
	"github.com/taranpreet09/Event-Management-System/pkg/log"
	"github.com/taranpreet09/Event-Management-System/pkg/notify"
	"github.com/taranpreet09/Event-Management-System/pkg/queue"
)

// NotifyWorkerCommand creates the notify-worker command: the process that
// drains queue:notifications and publishes to the realtime topics.
func NotifyWorkerCommand() *cli.Command {
	return &cli.Command{
		Name:  "notify-worker",
		Usage: "Start the notification queue worker",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cfg.RedisURL == "" {
				return fmt.Errorf("notify-worker requires redis_url to be configured")
			}

			logger := log.ForService("notify-worker")
			opt, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("parsing redis_url: %w", err)
			}
			rdb := redis.NewClient(opt)
			defer func() {
				if err := rdb.Close(); err != nil {
					logger.Warnf("closing redis client: %v", err)
				}
			}()
			logger.Infof("using redis at %s", opt.Addr)

			worker := notify.NewWorker(queue.NewRedisQueue(rdb), broker.NewRedisBroker(rdb), cfg.Worker.Backoff.Duration)
			return worker.Run(ctx)
		},
	}
}

package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"github.com/taranpreet09/Event-Management-System/pkg/config"
	"github.com/taranpreet09/Event-Management-System/pkg/log"
	"github.com/taranpreet09/Event-Management-System/pkg/mail"
	"github.com/taranpreet09/Event-Management-System/pkg/queue"
)

// EmailWorkerCommand creates the email-worker command: the process that
// drains queue:emails and relays each job through SMTP.
func EmailWorkerCommand() *cli.Command {
	return &cli.Command{
		Name:  "email-worker",
		Usage: "Start the email queue worker",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cfg.RedisURL == "" {
				return fmt.Errorf("email-worker requires redis_url to be configured")
			}

			logger := log.ForService("email-worker")
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

			var sender mail.Sender
			if cfg.Email.Host != "" {
				sender = mail.NewSMTPSender(cfg.Email.Host, cfg.Email.Port, cfg.Email.User, cfg.Email.Password, cfg.Email.From)
				logger.Infof("relaying through %s:%d", cfg.Email.Host, cfg.Email.Port)
			} else {
				sender = mail.NewLogSender()
				logger.Warnf("no SMTP relay configured, emails will be logged only")
			}

			worker := mail.NewWorker(queue.NewRedisQueue(rdb), sender, cfg.Worker.Backoff.Duration)
			return worker.Run(ctx)
		},
	}
}

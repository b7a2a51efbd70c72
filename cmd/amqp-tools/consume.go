package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Zereker/amqp"
)

type consumeOptions struct {
	queueOptions
	noAck bool
	count int
}

func newConsumeCommand(conn *connectOptions) *cobra.Command {
	var opts consumeOptions

	cmd := &cobra.Command{
		Use:   "consume [OPTIONS] COMMAND [ARG...]",
		Short: "Run a command for each delivered message, with the body on its standard input",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := conn.open(ctx)
			if err != nil {
				return err
			}
			err = runConsume(ctx, s, opts, args)
			if cerr := s.close(ctx); err == nil {
				err = cerr
			}
			return err
		},
	}

	opts.addFlags(cmd)
	flags := cmd.Flags()
	flags.BoolVarP(&opts.noAck, "no-ack", "A", false, "consume in no-ack mode")
	flags.IntVarP(&opts.count, "count", "c", 0, "stop after this many messages, 0 for no limit")
	return cmd
}

// runConsume pipes each delivery to argv and acknowledges it when the
// command succeeds. It returns nil once ctx is cancelled.
func runConsume(ctx context.Context, s *session, opts consumeOptions, argv []string) error {
	queue, err := opts.setup(ctx, s)
	if err != nil {
		return err
	}
	_, err = s.ch.BasicConsume(ctx, amqp.BasicConsume{Queue: queue, NoAck: opts.noAck})
	if err != nil {
		return errors.Wrap(err, "basic.consume")
	}

	for handled := 0; opts.count == 0 || handled < opts.count; handled++ {
		env, err := s.conn.ConsumeMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var unexpected *amqp.UnexpectedFrameError
			if errors.As(err, &unexpected) {
				s.logger.Debug("ignoring frame", "frame", unexpected.Frame.String())
				handled--
				continue
			}
			return errors.Wrap(err, "waiting for delivery")
		}

		if err := pipeline(ctx, argv, env.Message.Body()); err != nil {
			s.logger.Warn("command failed", "delivery_tag", env.DeliveryTag, "error", err)
			continue
		}
		if !opts.noAck {
			if err := s.ch.BasicAck(env.DeliveryTag, false); err != nil {
				return errors.Wrap(err, "basic.ack")
			}
		}
	}
	return nil
}

func pipeline(ctx context.Context, argv []string, body []byte) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(body)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

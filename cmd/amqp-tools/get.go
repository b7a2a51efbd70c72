package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// exitEmpty is the status of get when the queue had no message.
const exitEmpty = 2

func newGetCommand(conn *connectOptions) *cobra.Command {
	var opts queueOptions

	cmd := &cobra.Command{
		Use:   "get [OPTIONS]",
		Short: "Fetch one message and write its body to standard output",
		Long:  "Fetch one message and write its body to standard output. Exits with status 2 when the queue is empty.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := conn.open(ctx)
			if err != nil {
				return err
			}

			got, err := func() (bool, error) {
				queue, err := opts.setup(ctx, s)
				if err != nil {
					return false, err
				}
				_, ok, err := s.ch.BasicGet(ctx, queue, true)
				if err != nil {
					return false, errors.Wrap(err, "basic.get")
				}
				if !ok {
					return false, nil
				}
				msg, err := s.ch.ReadMessage(ctx)
				if err != nil {
					return false, errors.Wrap(err, "reading message")
				}
				_, err = cmd.OutOrStdout().Write(msg.Body())
				return true, err
			}()
			if err != nil {
				_ = s.close(ctx)
				return err
			}
			if err := s.close(ctx); err != nil {
				return err
			}
			if !got {
				return &exitError{code: exitEmpty}
			}
			return nil
		},
	}

	opts.addFlags(cmd)
	return cmd
}

// Command amqp-tools publishes, consumes and manages queues on an AMQP
// 0-9-1 broker from the shell.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// exitError ends the process with a specific status and no message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func newRootCommand() *cobra.Command {
	opts := &connectOptions{}

	cmd := &cobra.Command{
		Use:           "amqp-tools",
		Short:         "Command line tools for AMQP 0-9-1 brokers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.addFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newPublishCommand(opts),
		newConsumeCommand(opts),
		newGetCommand(opts),
		newDeclareQueueCommand(opts),
		newDeleteQueueCommand(opts),
	)
	return cmd
}

func run(ctx context.Context, args []string) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintf(os.Stderr, "amqp-tools: %v\n", err)
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

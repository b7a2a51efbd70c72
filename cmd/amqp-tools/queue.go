package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Zereker/amqp"
)

// queueOptions select or create the queue a consuming command reads from.
type queueOptions struct {
	queue        string
	exchange     string
	exchangeType string
	routingKey   string
}

func (o *queueOptions) addFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&o.queue, "queue", "q", "", "the queue to consume from")
	flags.StringVarP(&o.exchange, "exchange", "e", "", "bind the queue to this exchange")
	flags.StringVarP(&o.exchangeType, "exchange-type", "t", "", "create auto-delete exchange of this type for binding")
	flags.StringVarP(&o.routingKey, "routing-key", "r", "", "the routing key to bind with")
}

func (o *queueOptions) validate() error {
	if o.exchange != "" {
		return nil
	}
	switch {
	case o.routingKey != "":
		return errors.New("--routing-key option requires an exchange name to be provided with --exchange")
	case o.exchangeType != "":
		return errors.New("--exchange-type option requires an exchange name to be provided with --exchange")
	}
	return nil
}

// setup declares the queue, auto-deleting it when unnamed, and binds it if
// an exchange was given. It returns the queue name the server settled on.
func (o *queueOptions) setup(ctx context.Context, s *session) (string, error) {
	ok, err := s.ch.QueueDeclare(ctx, amqp.QueueDeclare{
		Queue:      o.queue,
		AutoDelete: o.queue == "",
	})
	if err != nil {
		return "", errors.Wrap(err, "queue.declare")
	}
	queue := ok.Queue
	if o.queue == "" {
		s.logger.Warn("server provided queue name", "queue", queue)
	}

	if o.exchange == "" {
		return queue, nil
	}
	if o.exchangeType != "" {
		err := s.ch.ExchangeDeclare(ctx, amqp.ExchangeDeclare{
			Exchange:   o.exchange,
			Type:       o.exchangeType,
			AutoDelete: true,
		})
		if err != nil {
			return "", errors.Wrap(err, "exchange.declare")
		}
	}
	err = s.ch.QueueBind(ctx, amqp.QueueBind{
		Queue:      queue,
		Exchange:   o.exchange,
		RoutingKey: o.routingKey,
	})
	if err != nil {
		return "", errors.Wrap(err, "queue.bind")
	}
	return queue, nil
}

func newDeclareQueueCommand(conn *connectOptions) *cobra.Command {
	var (
		queue   string
		durable bool
	)

	cmd := &cobra.Command{
		Use:   "declare-queue --queue NAME",
		Short: "Declare a queue and print its name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("queue") {
				return errors.New("queue name not specified")
			}
			ctx := cmd.Context()
			s, err := conn.open(ctx)
			if err != nil {
				return err
			}
			ok, err := s.ch.QueueDeclare(ctx, amqp.QueueDeclare{Queue: queue, Durable: durable})
			if err != nil {
				_ = s.close(ctx)
				return errors.Wrap(err, "queue.declare")
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok.Queue)
			return s.close(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&queue, "queue", "q", "", "the queue name to declare, or the empty string")
	flags.BoolVarP(&durable, "durable", "d", false, "declare a durable queue")
	return cmd
}

func newDeleteQueueCommand(conn *connectOptions) *cobra.Command {
	var req amqp.QueueDelete

	cmd := &cobra.Command{
		Use:   "delete-queue --queue NAME",
		Short: "Delete a queue and print how many messages it held",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Queue == "" {
				return errors.New("queue name not specified")
			}
			ctx := cmd.Context()
			s, err := conn.open(ctx)
			if err != nil {
				return err
			}
			count, err := s.ch.QueueDelete(ctx, req)
			if err != nil {
				_ = s.close(ctx)
				return errors.Wrap(err, "queue.delete")
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return s.close(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&req.Queue, "queue", "q", "", "the queue name to delete")
	flags.BoolVar(&req.IfUnused, "if-unused", false, "do not delete unless queue is unused")
	flags.BoolVarP(&req.IfEmpty, "if-empty", "e", false, "do not delete unless queue is empty")
	return cmd
}

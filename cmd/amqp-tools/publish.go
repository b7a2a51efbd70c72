package main

import (
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Zereker/amqp"
)

type publishOptions struct {
	exchange        string
	routingKey      string
	persistent      bool
	contentType     string
	contentEncoding string
	body            string
}

func newPublishCommand(conn *connectOptions) *cobra.Command {
	var opts publishOptions

	cmd := &cobra.Command{
		Use:   "publish [OPTIONS]",
		Short: "Publish a message read from --body or standard input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.exchange == "" && opts.routingKey == "" {
				return errors.New("neither exchange nor routing key specified")
			}
			body := []byte(opts.body)
			if !cmd.Flags().Changed("body") {
				var err error
				if body, err = io.ReadAll(cmd.InOrStdin()); err != nil {
					return errors.Wrap(err, "reading body")
				}
			}
			return runPublish(cmd, conn, opts, body)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.exchange, "exchange", "e", "", "the exchange to publish to")
	flags.StringVarP(&opts.routingKey, "routing-key", "r", "", "the routing key to publish with")
	flags.BoolVarP(&opts.persistent, "persistent", "p", false, "use the persistent delivery mode")
	flags.StringVarP(&opts.contentType, "content-type", "C", "", "the content-type for the message")
	flags.StringVarP(&opts.contentEncoding, "content-encoding", "E", "", "the content-encoding for the message")
	flags.StringVarP(&opts.body, "body", "b", "", "the message body")

	return cmd
}

func (o publishOptions) properties() *amqp.BasicProperties {
	props := &amqp.BasicProperties{
		Flags:        amqp.FlagDeliveryMode,
		DeliveryMode: amqp.Transient,
	}
	if o.persistent {
		props.DeliveryMode = amqp.Persistent
	}
	if o.contentType != "" {
		props.Flags |= amqp.FlagContentType
		props.ContentType = o.contentType
	}
	if o.contentEncoding != "" {
		props.Flags |= amqp.FlagContentEncoding
		props.ContentEncoding = o.contentEncoding
	}
	return props
}

func runPublish(cmd *cobra.Command, conn *connectOptions, opts publishOptions, body []byte) error {
	ctx := cmd.Context()
	s, err := conn.open(ctx)
	if err != nil {
		return err
	}

	err = s.ch.BasicPublish(opts.exchange, opts.routingKey, false, false, opts.properties(), body)
	if err != nil {
		_ = s.close(ctx)
		return errors.Wrap(err, "basic.publish")
	}
	return s.close(ctx)
}

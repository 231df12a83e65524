// SPDX-License-Identifier: Apache-2.0

package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"
	loglib "github.com/xataio/regexop/pkg/log"
)

var errNoServerReachable = errors.New("no kafka server reachable")

// ensureTopic creates the configured topic through the cluster controller. An
// already existing topic is left as is.
func ensureTopic(ctx context.Context, cfg *ConnConfig, logger loglib.Logger) error {
	dialer := newDialer(cfg)

	conn, err := dialAny(ctx, dialer, cfg.Servers)
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("looking up controller: %w", err)
	}
	controllerConn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dialing controller: %w", err)
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(cfg.Topic.topicConfig())
	switch {
	case errors.Is(err, kafka.TopicAlreadyExists):
		logger.Debug("kafka topic already exists", loglib.Fields{"kafka_topic": cfg.Topic.Name})
		return nil
	case err != nil:
		return fmt.Errorf("creating topic %s: %w", cfg.Topic.Name, err)
	}
	logger.Info("kafka topic created", loglib.Fields{"kafka_topic": cfg.Topic.Name})
	return nil
}

func dialAny(ctx context.Context, dialer *kafka.Dialer, servers []string) (*kafka.Conn, error) {
	errs := []error{errNoServerReachable}
	for _, server := range servers {
		conn, err := dialer.DialContext(ctx, "tcp", server)
		if err == nil {
			return conn, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", server, err))
	}
	return nil, errors.Join(errs...)
}

func newDialer(cfg *ConnConfig) *kafka.Dialer {
	return &kafka.Dialer{
		Timeout:   cfg.dialTimeout(),
		DualStack: true,
	}
}

// kafkaLogger routes the kafka-go client logs to the regexop logger. The
// regular client logs are very verbose and only emitted at trace level.
type kafkaLogger struct {
	logger loglib.Logger
	errors bool
}

func (l kafkaLogger) Printf(format string, args ...any) {
	switch {
	case l.errors:
		l.logger.Error(nil, fmt.Sprintf(format, args...))
	case l.logger.IsTraceEnabled():
		l.logger.Trace(fmt.Sprintf(format, args...))
	}
}

package config

import (
	"errors"
	"fmt"
)

var ErrTransportNotConfigured = errors.New("transport not configured")

// validateTransports checks the settings of the selected transports only.
func (c *Config) validateTransports() error {
	switch c.Notifier.Transport {
	case "smtp":
		if c.SMTP.Host == "" || c.SMTP.Port == 0 || c.SMTP.From == "" {
			return fmt.Errorf("smtp notifier needs host, port and from: %w", ErrTransportNotConfigured)
		}
	case "amqp":
		if c.AMQP.URL == "" {
			return fmt.Errorf("amqp notifier needs url: %w", ErrTransportNotConfigured)
		}
	}

	if c.Publisher.Transport == "kafka" && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka publisher needs brokers and topic: %w", ErrTransportNotConfigured)
	}
	return nil
}

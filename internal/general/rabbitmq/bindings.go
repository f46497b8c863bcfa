package rabbitmq

import (
	"fmt"

	"driver-link/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

// declareTopology makes sure the journal exchange, queue and bindings exist.
func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(contracts.ExchangeDriverTopic, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", contracts.ExchangeDriverTopic, err)
	}

	if _, err := ch.QueueDeclare(contracts.QueueDriverJournal, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", contracts.QueueDriverJournal, err)
	}

	for _, prefix := range []string{
		contracts.RouteDriverStatusPrefix,
		contracts.RouteDriverTripPrefix,
		contracts.RouteDriverConnectionPrefix,
	} {
		if err := ch.QueueBind(contracts.QueueDriverJournal, prefix+"*", contracts.ExchangeDriverTopic, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", contracts.QueueDriverJournal, prefix+"*", err)
		}
	}

	return nil
}

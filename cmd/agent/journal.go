package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"driver-link/internal/general/config"
	"driver-link/internal/general/contracts"
	"driver-link/internal/general/logger"
	"driver-link/internal/general/rabbitmq"
)

// RunJournal prints every event on the driver journal queue until ctx is done.
func RunJournal(ctx context.Context, configPath string, prefetch int, w io.Writer) error {
	log := logger.NewWithWriter("driver-link-journal", os.Stderr)

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return err
	}
	client, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer client.Close()

	return client.Consume(ctx, contracts.QueueDriverJournal, "driver-link-journal", prefetch,
		func(_ context.Context, d rabbitmq.Delivery) error {
			ts := d.Timestamp
			if ts.IsZero() {
				ts = time.Now()
			}
			_, err := fmt.Fprintf(w, "%s %-32s %s\n", ts.UTC().Format(time.RFC3339), d.RoutingKey, d.Body)
			return err
		})
}

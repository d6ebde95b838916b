// Command probe polls a remote JSON endpoint until it reports a finished
// state, combining the jsonclient executor with the poll driver.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/kroma-labs/beacon-go/jsonclient"
	"github.com/kroma-labs/beacon-go/poll"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := jsonclient.New(
		jsonclient.WithLogger(logger),
		jsonclient.WithServiceName("probe-example"),
		jsonclient.WithBreaker(jsonclient.BreakerConfig{
			ConsecutiveFailures: 5,
			Timeout:             30 * time.Second,
		}),
		jsonclient.WithCoalescing(),
	)

	conn := jsonclient.NewConnection("https://httpbin.org/json")
	conn.Timeout = 10 * time.Second
	conn.Headers = map[string]any{
		"If-None-Match": `"probe-example"`,
	}

	// The probe treats any fresh 2xx payload as "done"; a real deployment
	// would inspect a status field in the body instead.
	probe := func(ctx context.Context) (any, bool, error) {
		payload, err := client.Execute(ctx, conn, nil, nil)
		if err != nil {
			return nil, false, err
		}
		if payload == nil {
			// Conditional request answered "no update yet".
			return nil, false, nil
		}
		return payload, true, nil
	}

	value, err := poll.Poll(ctx, probe,
		poll.WithLogger(logger),
		poll.WithName("httpbin-status"),
		poll.WithInterval(500*time.Millisecond),
		poll.WithCeiling(5*time.Second),
		poll.WithRetryLimit(8),
		poll.WithTimeout(time.Minute),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("poll failed")
	}

	logger.Info().Interface("payload", value).Msg("endpoint settled")
}

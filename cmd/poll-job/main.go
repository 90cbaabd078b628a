// Command poll-job polls a genjobs job until it reaches a terminal status.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/target/genjobs/internal/domain/model"
	"github.com/target/genjobs/internal/poller"
)

// Exit codes.
const (
	exitSucceeded = 0
	exitFailed    = 1
	exitUsage     = 2
	exitMaxWait   = 3
)

const (
	defaultBaseURL  = "http://localhost:4000"
	defaultToken    = "demo-token"
	defaultInterval = "2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code) //nolint:forbidigo // exit status is the tool's contract with calling scripts
}

// usageError marks argument problems so they map to exitUsage.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	code := exitFailed
	cmd := newRootCmd(stdout, stderr, &code)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		var uerr usageError
		if errors.As(err, &uerr) {
			fmt.Fprintf(stderr, "Error: %v\n%s", err, cmd.UsageString())
			return exitUsage
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return code
	}
	return code
}

func newRootCmd(stdout, stderr io.Writer, code *int) *cobra.Command {
	var (
		maxWait   time.Duration
		heartbeat int
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "poll-job <jobId> [baseUrl] [authToken] [intervalSeconds]",
		Short: "Poll a job's status until it finishes",
		Long: "Polls GET {baseUrl}/api/jobs/{jobId} every intervalSeconds and prints each status change.\n" +
			"Exit status: 0 succeeded, 1 failed or cancelled, 2 bad arguments, 3 max wait exceeded.",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 1 || len(args) > 4 {
				return usageError{fmt.Errorf("accepts between 1 and 4 args, received %d", len(args))}
			}
			if args[0] == "" {
				return usageError{errors.New("job id is required")}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL := argOr(args, 1, defaultBaseURL)
			token := argOr(args, 2, defaultToken)
			interval, err := parseInterval(argOr(args, 3, defaultInterval))
			if err != nil {
				return usageError{err}
			}
			if maxWait < 0 {
				return usageError{errors.New("--max-wait must not be negative")}
			}

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level}))

			fetcher, err := poller.NewHTTPFetcher(baseURL, token, nil)
			if err != nil {
				return usageError{err}
			}
			p, err := poller.New(poller.Options{
				JobID:          args[0],
				Fetcher:        fetcher,
				Target:         baseURL,
				Interval:       interval,
				MaxWait:        maxWait,
				HeartbeatEvery: heartbeat,
				Out:            stdout,
				ErrOut:         stderr,
				Logger:         logger,
			})
			if err != nil {
				return usageError{err}
			}

			status, err := p.Run(cmd.Context())
			switch {
			case errors.Is(err, poller.ErrMaxWaitExceeded):
				*code = exitMaxWait
				return err
			case err != nil:
				*code = exitFailed
				return err
			case status == model.JobStatusSucceeded:
				*code = exitSucceeded
			default:
				*code = exitFailed
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })
	cmd.Flags().DurationVar(&maxWait, "max-wait", 0, "stop after this long without a terminal status (0 waits forever)")
	cmd.Flags().IntVar(&heartbeat, "heartbeat-every", 10, "log a debug heartbeat every N unchanged polls (0 disables)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging on stderr")
	return cmd
}

func argOr(args []string, i int, def string) string {
	if i < len(args) && args[i] != "" {
		return args[i]
	}
	return def
}

// parseInterval reads a positive number of seconds, fractions allowed.
func parseInterval(raw string) (time.Duration, error) {
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("invalid interval %q: want a positive number of seconds", raw)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

package cmd

import (
	"context"
	"errors"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/pipeline"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/relay"
	st "github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"
	"github.com/spf13/cobra"
)

var errMissingSource = errors.New("one of --interface or --read is required")

var (
	collectFlags captureFlags
	collectBind  string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect fingerprints relayed by remote sensors",
	Long: `Bind a ROUTER socket and count every fingerprint relayed to it.
With --interface or --read, frames captured by the collector itself are counted
on the same counter as relayed ones.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if collectBind == "" {
			exit("Error missing argument:", errors.New("--bind is required"))
		}
		ctx, cancel := signalContext()
		defer cancel()
		st.StartFileLogs()

		stack, err := newCountingStack(ctx)
		if err != nil {
			exit("Error creating counter:", err)
		}
		defer stack.close()

		sock, err := relay.NewRouterSocket(ctx, collectBind)
		if err != nil {
			exit("Error binding collector:", err)
		}
		collector := relay.NewCollector(sock, stack.counter)
		workers := []func(context.Context) error{collector.Run, stack.run}

		var stats *pipeline.Stats
		if collectFlags.enabled() {
			sess, err := openCapture(&collectFlags)
			if err != nil {
				exit("Error opening capture:", err)
			}
			defer sess.close()
			p := sess.pipeline(pipeline.CountLocally(stack.counter))
			stats = p.Stats()
			workers = append(workers, p.Run)
		}
		status := stack.statusServer(stats)
		workers = append(workers, func(ctx context.Context) error {
			return serveHTTP(ctx, st.Settings.ListenAddr, status.Router)
		})

		st.Logger.Info().Str("bind", collectBind).Msg("collector started")
		if err := runAll(ctx, workers...); err != nil {
			exit("Error while collecting:", err)
		}
	},
}

func init() {
	// relayed fingerprints carry no frame, so only opt in to a trace
	collectFlags.register(collectCmd, "")
	collectCmd.Flags().StringVarP(&collectBind, "bind", "b", st.Relay.BindAddr, "address the collector binds, e.g. tcp://*:5556")
	rootCmd.AddCommand(collectCmd)
}

package cmd

import (
	"context"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/pipeline"
	st "github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var localFlags captureFlags

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Capture frames and count duplicates in this process",
	Long: `Capture frames from an interface (or a pcap file) and count fingerprints locally.
Duplicates are logged and sent to the configured report sinks, the status api
is served on DW.LISTEN_ADDR.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !localFlags.enabled() {
			exit("Error missing argument:", errMissingSource)
		}
		ctx, cancel := signalContext()
		defer cancel()
		st.StartFileLogs()

		sess, err := openCapture(&localFlags)
		if err != nil {
			exit("Error opening capture:", err)
		}
		defer sess.close()
		stack, err := newCountingStack(ctx)
		if err != nil {
			exit("Error creating counter:", err)
		}
		defer stack.close()

		p := sess.pipeline(pipeline.CountLocally(stack.counter))
		err = runAll(ctx,
			p.Run,
			stack.run,
			func(ctx context.Context) error {
				return serveHTTP(ctx, st.Settings.ListenAddr, stack.statusServer(p.Stats()).Router)
			},
		)
		if err != nil {
			exit("Error while counting:", err)
		}
	},
}

func init() {
	localFlags.register(localCmd, st.Capture.TracePath)
	rootCmd.AddCommand(localCmd)
}

// runAll runs every worker until ctx is cancelled or one of them fails.
func runAll(ctx context.Context, workers ...func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		g.Go(func() error { return w(ctx) })
	}
	return g.Wait()
}

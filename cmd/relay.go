package cmd

import (
	"errors"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/prom"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/relay"
	st "github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"
	"github.com/spf13/cobra"
)

var (
	relayFlags   captureFlags
	relayConnect string
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Capture frames and relay their fingerprints to a collector",
	Long: `Capture frames from an interface (or a pcap file) and send every fingerprint to a
collector over a REQ socket, one request per frame. Prometheus metrics are
served on DW.LISTEN_ADDR.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !relayFlags.enabled() {
			exit("Error missing argument:", errMissingSource)
		}
		if relayConnect == "" {
			exit("Error missing argument:", errors.New("--connect is required"))
		}
		ctx, cancel := signalContext()
		defer cancel()
		st.StartFileLogs()
		go prom.StartStandalonePromServer(st.Settings.ListenAddr)

		sock, err := relay.NewRequestSocket(ctx, relayConnect, st.Relay.Identity)
		if err != nil {
			exit("Error connecting to collector:", err)
		}
		producer := relay.NewProducer(sock, st.Relay.QueueSize, st.Relay.SendPayload)

		sess, err := openCapture(&relayFlags)
		if err != nil {
			exit("Error opening capture:", err)
		}
		defer sess.close()

		st.Logger.Info().Str("connect", relayConnect).Str("identity", st.Relay.Identity).Msg("relay started")
		if err := runAll(ctx, sess.pipeline(producer).Run, producer.Run); err != nil {
			exit("Error while relaying:", err)
		}
	},
}

func init() {
	relayFlags.register(relayCmd, st.Capture.TracePath)
	relayCmd.Flags().StringVarP(&relayConnect, "connect", "c", st.Relay.ConnectAddr, "collector address, e.g. tcp://127.0.0.1:5556")
	rootCmd.AddCommand(relayCmd)
}

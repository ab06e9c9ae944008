package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dupwatch",
	Short: "Detect duplicate delivery of network frames",
	Long: `Dupwatch fingerprints every link layer frame seen on an interface and counts
how often each fingerprint occurs. A fingerprint seen more than once means the
same frame was delivered twice, e.g by mirrored paths, routing loops or replay.

Frames can be counted in the capturing process ('local'), or relayed from any
number of sensors ('relay') to a central collector ('collect').

Settings are read from environment variables prefixed with 'DW.', flags override them.
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/capture/pcap"
	"github.com/spf13/cobra"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List interfaces frames can be captured from",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ifaces, err := pcap.ListInterfaces()
		if err != nil {
			exit("Error listing interfaces:", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tADDRESSES\tDESCRIPTION")
		for _, iface := range ifaces {
			addrs := make([]string, 0, len(iface.Addresses))
			for _, a := range iface.Addresses {
				addrs = append(addrs, a.String())
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", iface.Name, strings.Join(addrs, ","), iface.Description)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(interfacesCmd)
}

package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/uftp-network/uftp-engine/internal/isptime"
)

var ispCmd = &cobra.Command{
	Use:   "isp",
	Short: "Print the ISPs of a day",
	Long: `Print the imbalance settlement periods (ISPs) of a day in a time zone.

Days with a daylight saving transition have fewer or more ISPs than 24 hours / ISP duration.

Example:
  uftp isp --period 2022-03-27 --zone Europe/Amsterdam --duration PT15M`,
	Args: cobra.NoArgs,
	RunE: runISP,
}

var (
	ispPeriod   string
	ispZone     string
	ispDuration string
)

func init() {
	ispCmd.Flags().StringVar(&ispPeriod, "period", "", "Day in xs:date format (e.g., 2022-03-27) [required]")
	ispCmd.Flags().StringVar(&ispZone, "zone", "Europe/Amsterdam", "IANA time zone")
	ispCmd.Flags().StringVar(&ispDuration, "duration", "PT15M", "ISP duration in xs:duration format")
	_ = ispCmd.MarkFlagRequired("period")
}

func runISP(cmd *cobra.Command, args []string) error {
	d, err := isptime.ParseDuration(ispDuration)
	if err != nil {
		return err
	}

	isps, err := isptime.IspsOfDay(ispPeriod, ispZone, d)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s in %s: %d ISPs of %s\n", ispPeriod, ispZone, len(isps), isptime.FormatDuration(d))
	fmt.Fprintln(w, "ISP\tSTART\tEND\tSTART (UTC)")
	for _, isp := range isps {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			isp.Index,
			isp.Start.Format(time.RFC3339),
			isp.End.Format(time.RFC3339),
			isp.Start.UTC().Format(time.RFC3339))
	}
	return w.Flush()
}

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/nfrund/trendline/internal/pubsub"
	"github.com/spf13/cobra"
)

var (
	eventsOutputFormat string
	eventsModuleFilter string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List the events published on the internal bus",
	Long: `List every event declared on the internal pub/sub bus with its payload fields.

Examples:
  trendline events                     # table format
  trendline events --format json       # JSON format
  trendline events --module trending   # only events from one module`,
	RunE: runEvents,
}

func runEvents(cmd *cobra.Command, args []string) error {
	var events []pubsub.EventInfo
	for _, info := range pubsub.Catalog() {
		if eventsModuleFilter == "" || info.Module == eventsModuleFilter {
			events = append(events, info)
		}
	}

	out := cmd.OutOrStdout()
	switch eventsOutputFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if events == nil {
			events = []pubsub.EventInfo{}
		}
		return enc.Encode(events)
	case "table":
		if len(events) == 0 {
			fmt.Fprintln(out, "No events found.")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tMODULE\tPAYLOAD\tFIELDS\tDESCRIPTION")
		for _, e := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Name, e.Module, e.TypeName, strings.Join(e.PayloadFields, ","), e.Description)
		}
		return w.Flush()
	default:
		return fmt.Errorf("invalid format %q: valid formats are table, json", eventsOutputFormat)
	}
}

func init() {
	eventsCmd.Flags().StringVarP(&eventsOutputFormat, "format", "f", "table", "Output format (table, json)")
	eventsCmd.Flags().StringVarP(&eventsModuleFilter, "module", "m", "", "Only list events from this module")
	rootCmd.AddCommand(eventsCmd)
}

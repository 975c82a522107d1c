package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/votecast/backoffice/internal/app/ledger"
	"github.com/votecast/backoffice/internal/domain"
)

// ─── Report CLI ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(balanceCmd)

	reportCmd.Flags().String("by", "events", "Grouping: categories, nominees, events or organizers")
	reportCmd.Flags().String("event", "", "Only payments of this event")
	reportCmd.Flags().String("organizer", "", "Only payments of this organizer's events")
	reportCmd.Flags().String("from", "", "Start date, inclusive (YYYY-MM-DD or RFC 3339)")
	reportCmd.Flags().String("to", "", "End date, exclusive (YYYY-MM-DD or RFC 3339)")
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show revenue rollups of completed payments",
	Long: `Aggregate completed payments into revenue rollups. Each row shows
gross revenue, platform commission and organizer share; commission plus
share always equals gross.`,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	by, _ := cmd.Flags().GetString("by")
	eventID, _ := cmd.Flags().GetString("event")
	organizerID, _ := cmd.Flags().GetString("organizer")
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")

	if !slices.Contains(ledger.ViewNames, by) {
		return fmt.Errorf("unknown grouping %q: use %s", by, strings.Join(ledger.ViewNames, ", "))
	}
	filter, err := ledger.ParseFilter(ledger.FilterInput{
		EventID: eventID, OrganizerID: organizerID, From: fromStr, To: toStr,
	})
	if err != nil {
		return err
	}

	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	l, err := d.Ledger.Report(cmd.Context(), filter)
	if err != nil {
		return err
	}
	rows, _ := ledger.View(l, by)
	return printRollups(cmd.OutOrStdout(), rows, l.Total())
}

func printRollups(out io.Writer, rows []ledger.Rollup, total ledger.Rollup) error {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No completed payments.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ORGANIZER\tEVENT\tCATEGORY\tNOMINEE\tPAYMENTS\tVOTES\tGROSS\tCOMMISSION\tSHARE\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\t\n",
			dash(r.OrganizerID), dash(r.EventID), dash(r.CategoryID), dash(r.NomineeID),
			r.Payments, r.Votes, r.Gross.StringFixed(2), r.Commission.StringFixed(2), r.OrganizerShare.StringFixed(2))
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t\t%d\t%d\t%s\t%s\t%s\t\n",
		total.Payments, total.Votes, total.Gross.StringFixed(2), total.Commission.StringFixed(2), total.OrganizerShare.StringFixed(2))
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// ─── balance ────────────────────────────────────────────────────────────────

var balanceCmd = &cobra.Command{
	Use:   "balance ORGANIZER_ID",
	Short: "Show an organizer's withdrawable balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runBalance,
}

func runBalance(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	b, err := d.Balances.Balance(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printBalance(cmd.OutOrStdout(), b, d.Config.Fees.Currency)
	return nil
}

func printBalance(out io.Writer, b domain.OrganizerBalance, currency string) {
	fmt.Fprintf(out, "Organizer %s\n", b.OrganizerID)
	fmt.Fprintf(out, "  Earned:     %s %s\n", currency, b.Earned.StringFixed(2))
	fmt.Fprintf(out, "  Withdrawn:  %s %s\n", currency, b.Withdrawn.StringFixed(2))
	fmt.Fprintf(out, "  In flight:  %s %s\n", currency, b.InFlight.StringFixed(2))
	fmt.Fprintf(out, "  Pending:    %s %s\n", currency, b.Pending.StringFixed(2))
	fmt.Fprintf(out, "  Current:    %s %s\n", currency, b.Current.StringFixed(2))
	fmt.Fprintf(out, "  Available:  %s %s\n", currency, b.Available.StringFixed(2))
}

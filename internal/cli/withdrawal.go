package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/votecast/backoffice/internal/domain"
)

// ─── Withdrawal CLI ─────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(withdrawalCmd)
	withdrawalCmd.AddCommand(withdrawalListCmd)
	withdrawalCmd.AddCommand(withdrawalApproveCmd)
	withdrawalCmd.AddCommand(withdrawalRejectCmd)
	withdrawalCmd.AddCommand(withdrawalProcessCmd)

	withdrawalListCmd.Flags().String("organizer", "", "Only this organizer's requests")
	withdrawalListCmd.Flags().String("status", "", "Only requests in this status")
	withdrawalListCmd.Flags().Int("limit", 50, "Maximum rows")

	for _, c := range []*cobra.Command{withdrawalApproveCmd, withdrawalRejectCmd} {
		c.Flags().String("admin", "", "Admin ID recorded as processed_by (required)")
	}
	withdrawalRejectCmd.Flags().StringP("reason", "r", "", "Rejection reason shown to the organizer (required)")
}

var withdrawalCmd = &cobra.Command{
	Use:   "withdrawal",
	Short: "Review and pay organizer withdrawals",
	Long: `Review organizer withdrawal requests.
A request moves pending → processing (approve) → completed (process),
or pending → rejected. Completed and rejected requests are final.`,
}

// ─── withdrawal list ────────────────────────────────────────────────────────

var withdrawalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List withdrawal requests",
	RunE:  runWithdrawalList,
}

func runWithdrawalList(cmd *cobra.Command, args []string) error {
	organizerID, _ := cmd.Flags().GetString("organizer")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	list, err := d.Withdrawals.List(cmd.Context(), domain.WithdrawalFilter{
		OrganizerID: organizerID, Status: domain.WithdrawalStatus(status), Limit: limit,
	})
	if err != nil {
		return err
	}
	return printWithdrawals(cmd.OutOrStdout(), list)
}

func printWithdrawals(out io.Writer, list []domain.WithdrawalRequest) error {
	if len(list) == 0 {
		fmt.Fprintln(out, "No withdrawal requests.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tORGANIZER\tAMOUNT\tMETHOD\tSTATUS\tCREATED")
	for _, w := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			w.ID, w.OrganizerID, w.Amount.StringFixed(2), w.Method, w.Status, w.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// ─── withdrawal approve / reject / process ──────────────────────────────────

var withdrawalApproveCmd = &cobra.Command{
	Use:   "approve REQUEST_ID",
	Short: "Approve a pending request",
	Args:  cobra.ExactArgs(1),
	RunE:  runWithdrawalApprove,
}

func runWithdrawalApprove(cmd *cobra.Command, args []string) error {
	admin, _ := cmd.Flags().GetString("admin")
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	w, err := d.Withdrawals.Approve(cmd.Context(), args[0], admin)
	if err != nil {
		return err
	}
	printWithdrawal(cmd.OutOrStdout(), w)
	return nil
}

var withdrawalRejectCmd = &cobra.Command{
	Use:   "reject REQUEST_ID",
	Short: "Reject a pending request",
	Args:  cobra.ExactArgs(1),
	RunE:  runWithdrawalReject,
}

func runWithdrawalReject(cmd *cobra.Command, args []string) error {
	admin, _ := cmd.Flags().GetString("admin")
	reason, _ := cmd.Flags().GetString("reason")
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	w, err := d.Withdrawals.Reject(cmd.Context(), args[0], admin, reason)
	if err != nil {
		return err
	}
	printWithdrawal(cmd.OutOrStdout(), w)
	return nil
}

var withdrawalProcessCmd = &cobra.Command{
	Use:   "process REQUEST_ID",
	Short: "Pay out an approved request",
	Long:  `Send the payout for a processing request and mark it completed. The platform fee is deducted from the amount.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runWithdrawalProcess,
}

func runWithdrawalProcess(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	w, err := d.Withdrawals.ProcessPayment(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printWithdrawal(cmd.OutOrStdout(), w)
	return nil
}

func printWithdrawal(out io.Writer, w domain.WithdrawalRequest) {
	fmt.Fprintf(out, "Withdrawal %s: %s\n", w.ID, w.Status)
	fmt.Fprintf(out, "  Organizer: %s\n", w.OrganizerID)
	fmt.Fprintf(out, "  Amount:    %s via %s (%s %s)\n",
		w.Amount.StringFixed(2), w.Method, w.Destination.Provider, w.Destination.AccountNumber)
	if w.ProcessedBy != "" {
		fmt.Fprintf(out, "  By:        %s\n", w.ProcessedBy)
	}
	if w.RejectionReason != "" {
		fmt.Fprintf(out, "  Reason:    %s\n", w.RejectionReason)
	}
	if w.Status == domain.WithdrawalCompleted {
		fmt.Fprintf(out, "  Fee:       %s\n", w.Fee.StringFixed(2))
		fmt.Fprintf(out, "  Net:       %s\n", w.NetAmount.StringFixed(2))
		fmt.Fprintf(out, "  Reference: %s\n", w.PayoutReference)
	}
}

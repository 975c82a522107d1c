package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/votecast/backoffice/internal/app/scheme"
	"github.com/votecast/backoffice/internal/domain"
)

// ─── Scheme CLI ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(schemeCmd)
	schemeCmd.AddCommand(schemeListCmd)
	schemeCmd.AddCommand(schemeResolveCmd)
	schemeCmd.AddCommand(schemeSetAdminCmd)
	schemeCmd.AddCommand(schemeCreateCmd)

	schemeCreateCmd.Flags().String("event", "", "Event ID (empty creates the platform default)")
	schemeCreateCmd.Flags().String("admin", "", "Admin commission percentage (required)")
	schemeCreateCmd.Flags().String("vote-price", "1", "Unit vote price")
	schemeCreateCmd.Flags().Bool("activate", false, "Create the scheme as active instead of draft")
}

var schemeCmd = &cobra.Command{
	Use:   "scheme",
	Short: "Manage commission schemes",
	Long: `Manage commission schemes. A scheme fixes the admin commission
percentage of an event (or of the whole platform when it has no event);
the organizer share is always the remainder.`,
}

// ─── scheme list ────────────────────────────────────────────────────────────

var schemeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List commission schemes",
	RunE:  runSchemeList,
}

func runSchemeList(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	list, err := d.Schemes.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No schemes configured.")
		fmt.Fprintln(out, "Use 'votecast scheme create --admin 10 --activate' to add a platform default.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEVENT\tADMIN %\tORGANIZER %\tVOTE PRICE\tSTATUS")
	for _, s := range list {
		event := s.EventID
		if s.IsDefault() {
			event = "(default)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, event, s.AdminPercentage, s.OrganizerPercentage(), s.VotePrice.StringFixed(2), s.Status)
	}
	return tw.Flush()
}

// ─── scheme resolve ─────────────────────────────────────────────────────────

var schemeResolveCmd = &cobra.Command{
	Use:   "resolve [EVENT_ID]",
	Short: "Show the scheme that prices an event",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSchemeResolve,
}

func runSchemeResolve(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	eventID := ""
	if len(args) == 1 {
		eventID = args[0]
	}
	s, err := d.Schemes.Resolve(cmd.Context(), eventID)
	if err != nil {
		return err
	}
	printScheme(cmd, s)
	return nil
}

// ─── scheme set-admin ───────────────────────────────────────────────────────

var schemeSetAdminCmd = &cobra.Command{
	Use:   "set-admin SCHEME_ID PERCENT",
	Short: "Set a scheme's admin commission percentage",
	Args:  cobra.ExactArgs(2),
	RunE:  runSchemeSetAdmin,
}

func runSchemeSetAdmin(cmd *cobra.Command, args []string) error {
	pct, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("percent %q: %w", args[1], domain.ErrInvalidPercentage)
	}
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	s, err := d.Schemes.SetAdminPercentage(cmd.Context(), args[0], pct)
	if err != nil {
		return err
	}
	printScheme(cmd, s)
	return nil
}

// ─── scheme create ──────────────────────────────────────────────────────────

var schemeCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a commission scheme",
	RunE:  runSchemeCreate,
}

func runSchemeCreate(cmd *cobra.Command, args []string) error {
	eventID, _ := cmd.Flags().GetString("event")
	adminStr, _ := cmd.Flags().GetString("admin")
	priceStr, _ := cmd.Flags().GetString("vote-price")
	activate, _ := cmd.Flags().GetBool("activate")

	if adminStr == "" {
		return fmt.Errorf("admin percentage required: votecast scheme create --admin <percent>")
	}
	admin, err := decimal.NewFromString(adminStr)
	if err != nil {
		return fmt.Errorf("admin %q: %w", adminStr, domain.ErrInvalidPercentage)
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return domain.Invalid("vote_price", "not a number: "+priceStr)
	}
	status := domain.SchemeDraft
	if activate {
		status = domain.SchemeActive
	}

	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	s, err := d.Schemes.Create(cmd.Context(), scheme.CreateInput{
		EventID: eventID, AdminPercentage: admin, VotePrice: price, Status: status,
	})
	if err != nil {
		return err
	}
	printScheme(cmd, s)
	return nil
}

func printScheme(cmd *cobra.Command, s domain.Scheme) {
	out := cmd.OutOrStdout()
	scope := "event " + s.EventID
	if s.IsDefault() {
		scope = "platform default"
	}
	fmt.Fprintf(out, "Scheme %s (%s, %s)\n", s.ID, scope, s.Status)
	fmt.Fprintf(out, "  Admin:      %s%%\n", s.AdminPercentage)
	fmt.Fprintf(out, "  Organizer:  %s%%\n", s.OrganizerPercentage())
	fmt.Fprintf(out, "  Vote price: %s\n", s.VotePrice.StringFixed(2))
	if s.MinBulkQuantity > 0 {
		fmt.Fprintf(out, "  Bulk:       %s%% off from %d votes\n", s.BulkDiscountPercentage, s.MinBulkQuantity)
	}
}

package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"text/template"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/finsync/internal/client/data"
	"github.com/iudanet/finsync/internal/models"
)

const transactionTemplate = `
=== Transaction ===

ID:       {{.ID}}
Type:     {{.Type}}
Amount:   {{printf "%.2f" .Amount}} {{.Currency}}
Account:  {{.AccountID}}
Date:     {{.OccurredAt.Format "2006-01-02"}}
{{- if .Merchant}}
Merchant: {{.Merchant}}
{{- end}}
{{- if .Note}}
Note:     {{.Note}}
{{- end}}
{{- if .Tags}}
Tags:     {{join .Tags}}
{{- end}}
{{- if .RecurringID}}
Rule:     {{.RecurringID}}
{{- end}}
Synced:   {{.Synced}}
`

var transactionTmpl = template.Must(template.New("txn").Funcs(template.FuncMap{
	"join": func(s []string) string { return strings.Join(s, ", ") },
}).Parse(transactionTemplate))

// dateLayout формат дат в флагах
const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func (c *Cli) accountCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "account", Short: "Manage accounts"}

	var in data.AccountInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.data.CreateAccount(cmd.Context(), in)
			if err != nil {
				return err
			}
			c.io.Printf("✓ Account created: %s\n", a.ID)
			return nil
		},
	}
	add.Flags().StringVar(&in.Name, "name", "", "account name")
	add.Flags().StringVar(&in.Type, "type", "", "checking, savings, credit_card, efectivo")
	add.Flags().StringVar(&in.Currency, "currency", "", "ISO 4217 code")
	add.Flags().Float64Var(&in.OpeningBalance, "opening-balance", 0, "opening balance")
	_ = add.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := c.data.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(c.io, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tCURRENCY\tSYNCED")
			for _, a := range accounts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", a.ID, a.Name, a.Type, a.Currency, a.Synced)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func (c *Cli) categoryCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "category", Short: "Manage categories"}

	var group string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a category unless it exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.data.EnsureCategory(cmd.Context(), args[0], group)
			if err != nil {
				return err
			}
			c.io.Printf("✓ Category %q (%s)\n", cat.Name, cat.SyncID)
			return nil
		},
	}
	add.Flags().StringVar(&group, "group", "", "budget group")

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := c.data.ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			for _, cat := range cats {
				c.io.Printf("%-24s %s\n", cat.Name, cat.BudgetGroup)
			}
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func (c *Cli) txCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "tx", Short: "Manage transactions"}
	cmd.AddCommand(c.txAddCommand(), c.txEditCommand(), c.txDeleteCommand(), c.txListCommand(), c.txShowCommand())
	return cmd
}

func (c *Cli) txAddCommand() *cobra.Command {
	var (
		in   data.TransactionInput
		date string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if date != "" {
				t, err := parseDate(date)
				if err != nil {
					return err
				}
				in.OccurredAt = t
			}
			txn, err := c.data.CreateTransaction(cmd.Context(), in)
			if err != nil {
				return err
			}
			c.io.Printf("✓ Transaction created: %s\n", txn.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.AccountID, "account", "", "account id")
	f.StringVar(&in.Type, "type", models.TxnTypeExpense, "ingreso, gasto or transferencia")
	f.Float64Var(&in.Amount, "amount", 0, "positive amount")
	f.StringVar(&in.Currency, "currency", "", "defaults to the account currency")
	f.StringVar(&in.CategoryName, "category", "", "category name")
	f.StringVar(&in.SubCategoryName, "subcategory", "", "subcategory name")
	f.StringVar(&in.Merchant, "merchant", "", "merchant")
	f.StringVar(&in.Note, "note", "", "note")
	f.StringSliceVar(&in.Tags, "tag", nil, "tag, repeatable")
	f.StringVar(&date, "date", "", "YYYY-MM-DD, defaults to today")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (c *Cli) txEditCommand() *cobra.Command {
	var (
		upd                     data.TransactionUpdate
		amount                  float64
		typ, category, merchant string
		note, date              string
		tags                    []string
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			// только явно заданные флаги попадают в обновление
			if f.Changed("amount") {
				upd.Amount = &amount
			}
			if f.Changed("type") {
				upd.Type = &typ
			}
			if f.Changed("category") {
				upd.CategoryName = &category
			}
			if f.Changed("merchant") {
				upd.Merchant = &merchant
			}
			if f.Changed("note") {
				upd.Note = &note
			}
			if f.Changed("tag") {
				upd.Tags = &tags
			}
			if f.Changed("date") {
				t, err := parseDate(date)
				if err != nil {
					return err
				}
				upd.OccurredAt = &t
			}

			_, changed, err := c.data.UpdateTransaction(cmd.Context(), args[0], upd)
			if err != nil {
				return err
			}
			if !changed {
				c.io.Println("Nothing changed")
				return nil
			}
			c.io.Println("✓ Transaction updated")
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&amount, "amount", 0, "positive amount")
	f.StringVar(&typ, "type", "", "ingreso, gasto or transferencia")
	f.StringVar(&category, "category", "", "category name")
	f.StringVar(&merchant, "merchant", "", "merchant")
	f.StringVar(&note, "note", "", "note")
	f.StringSliceVar(&tags, "tag", nil, "replace tags, repeatable")
	f.StringVar(&date, "date", "", "YYYY-MM-DD")
	return cmd
}

func (c *Cli) txDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.data.DeleteTransaction(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.io.Println("✓ Transaction deleted")
			return nil
		},
	}
}

func (c *Cli) txListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			txns, err := c.data.ListTransactions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(txns) == 0 {
				c.io.Println("No transactions")
				return nil
			}
			w := tabwriter.NewWriter(c.io, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tMERCHANT")
			for _, t := range txns {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f %s\t%s\n",
					t.ID, t.OccurredAt.Format(dateLayout), t.Type, t.Amount, t.Currency, t.Merchant)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows")
	return cmd
}

func (c *Cli) txShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txn, err := c.data.GetTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return transactionTmpl.Execute(c.io, txn)
		},
	}
}

func (c *Cli) budgetCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "budget", Short: "Manage budgets"}

	var in data.BudgetInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Set a monthly budget for a category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := c.data.CreateBudget(cmd.Context(), in)
			if err != nil {
				return err
			}
			c.io.Printf("✓ Budget created: %s\n", b.ID)
			return nil
		},
	}
	add.Flags().StringVar(&in.CategoryName, "category", "", "category name")
	add.Flags().StringVar(&in.Month, "month", time.Now().Format("2006-01"), "YYYY-MM")
	add.Flags().Float64Var(&in.Amount, "amount", 0, "monthly limit")
	_ = add.MarkFlagRequired("category")
	_ = add.MarkFlagRequired("amount")

	cmd.AddCommand(add)
	return cmd
}

func (c *Cli) recurringCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "recurring", Short: "Manage recurring rules"}

	var (
		in         data.RecurringInput
		start, end string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a recurring rule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if in.StartDate, err = parseDate(start); err != nil {
				return err
			}
			if end != "" {
				e, err := parseDate(end)
				if err != nil {
					return err
				}
				in.EndDate = &e
			}
			r, err := c.data.CreateRecurring(cmd.Context(), in)
			if err != nil {
				return err
			}
			c.io.Printf("✓ Recurring rule created: %s (next run %s)\n", r.ID, r.NextRun.Format(dateLayout))
			return nil
		},
	}
	f := add.Flags()
	f.StringVar(&in.Name, "name", "", "rule name")
	f.StringVar(&in.AccountID, "account", "", "account id")
	f.StringVar(&in.Type, "type", models.TxnTypeExpense, "ingreso, gasto or transferencia")
	f.Float64Var(&in.Amount, "amount", 0, "positive amount")
	f.StringVar(&in.Currency, "currency", "", "defaults to the account currency")
	f.StringVar(&in.CategoryName, "category", "", "category name")
	f.StringVar(&in.SubCategoryName, "subcategory", "", "subcategory name")
	f.StringVar(&in.Frequency, "frequency", models.FrequencyMonthly, "weekly, monthly, monthly:N or annual")
	f.BoolVar(&in.AutoGenerate, "auto", true, "generate transactions automatically")
	f.StringVar(&start, "start", time.Now().Format(dateLayout), "first run, YYYY-MM-DD")
	f.StringVar(&end, "end", "", "last possible run, YYYY-MM-DD")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("account")
	_ = add.MarkFlagRequired("amount")

	var asOf string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Create due recurring transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			at := time.Now()
			if asOf != "" {
				t, err := parseDate(asOf)
				if err != nil {
					return err
				}
				// весь день включительно
				at = t.Add(24*time.Hour - time.Nanosecond)
			}
			n, err := c.data.GenerateDue(cmd.Context(), at)
			if err != nil {
				return err
			}
			c.io.Printf("Generated %d transactions\n", n)
			return nil
		},
	}
	generate.Flags().StringVar(&asOf, "as-of", "", "YYYY-MM-DD, defaults to now")

	cmd.AddCommand(add, generate)
	return cmd
}

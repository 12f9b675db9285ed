package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// Ledger is the subset of the ledger service the terminal front end calls.
type Ledger interface {
	AddExpense(ctx context.Context, e core.Expense) (int64, error)
	AddIncome(ctx context.Context, i core.Income) (int64, error)
	ListExpenses(ctx context.Context, period *core.Period) ([]core.Expense, error)
	ListIncome(ctx context.Context, period *core.Period) ([]core.Income, error)
	DeleteExpense(ctx context.Context, id int64) (bool, error)
	DeleteIncome(ctx context.Context, id int64) (bool, error)
	FinancialSummary(ctx context.Context, period core.Period) (core.FinancialSummary, error)
}

// Opener provides the ledger for one command invocation and a function
// releasing it.
type Opener func(ctx context.Context) (Ledger, func() error, error)

type app struct {
	open    Opener
	now     func() time.Time
	ledger  Ledger
	release func() error
}

// Option customises the root command.
type Option func(*app)

// WithClock overrides the current time used for defaults and month navigation.
func WithClock(now func() time.Time) Option {
	return func(a *app) { a.now = now }
}

// Run executes the fintrack-cli command line in args and releases the
// ledger afterwards. The ledger is opened lazily so that help and flag
// errors never touch the database.
func Run(ctx context.Context, open Opener, args []string, in io.Reader, out, errOut io.Writer, opts ...Option) error {
	a := &app{open: open, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "fintrack-cli",
		Short:         "Personal finance tracker",
		Long:          `Record expenses and income and review monthly summaries from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		a.entryCommand(expenseKind),
		a.entryCommand(incomeKind),
		a.summaryCommand(),
		a.categoriesCommand(),
	)
	return root
}

func (a *app) ledgerFor(ctx context.Context) (Ledger, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}
	l, release, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	a.ledger, a.release = l, release
	return l, nil
}

func (a *app) close() error {
	if a.release == nil {
		return nil
	}
	release := a.release
	a.ledger, a.release = nil, nil
	return release()
}

// row is the kind-independent view of an entry used for printing.
type row struct {
	id          int64
	amount      decimal.Decimal
	label       string
	description string
	date        core.Date
}

// entryKind describes the parts in which expense and income commands differ.
type entryKind struct {
	name   string
	plural string
	label  string
	labels []string
	add    func(ctx context.Context, l Ledger, r row) (int64, error)
	list   func(ctx context.Context, l Ledger, p *core.Period) ([]row, error)
	remove func(ctx context.Context, l Ledger, id int64) (bool, error)
}

var expenseKind = entryKind{
	name:   "expense",
	plural: "expenses",
	label:  "category",
	labels: core.ExpenseCategories,
	add: func(ctx context.Context, l Ledger, r row) (int64, error) {
		return l.AddExpense(ctx, core.Expense{Amount: r.amount, Category: r.label, Description: r.description, Date: r.date})
	},
	list: func(ctx context.Context, l Ledger, p *core.Period) ([]row, error) {
		entries, err := l.ListExpenses(ctx, p)
		if err != nil {
			return nil, err
		}
		rows := make([]row, len(entries))
		for i, e := range entries {
			rows[i] = row{id: e.ID, amount: e.Amount, label: e.Category, description: e.Description, date: e.Date}
		}
		return rows, nil
	},
	remove: func(ctx context.Context, l Ledger, id int64) (bool, error) {
		return l.DeleteExpense(ctx, id)
	},
}

var incomeKind = entryKind{
	name:   "income",
	plural: "income",
	label:  "source",
	labels: core.IncomeSources,
	add: func(ctx context.Context, l Ledger, r row) (int64, error) {
		return l.AddIncome(ctx, core.Income{Amount: r.amount, Source: r.label, Description: r.description, Date: r.date})
	},
	list: func(ctx context.Context, l Ledger, p *core.Period) ([]row, error) {
		entries, err := l.ListIncome(ctx, p)
		if err != nil {
			return nil, err
		}
		rows := make([]row, len(entries))
		for i, e := range entries {
			rows[i] = row{id: e.ID, amount: e.Amount, label: e.Source, description: e.Description, date: e.Date}
		}
		return rows, nil
	},
	remove: func(ctx context.Context, l Ledger, id int64) (bool, error) {
		return l.DeleteIncome(ctx, id)
	},
}

func (a *app) entryCommand(k entryKind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   k.name,
		Short: fmt.Sprintf("Manage %s entries", k.name),
	}
	cmd.AddCommand(a.addCommand(k), a.listCommand(k), a.deleteCommand(k))
	return cmd
}

func (a *app) addCommand(k entryKind) *cobra.Command {
	var amount, label, description, date string

	cmd := &cobra.Command{
		Use:   "add",
		Short: fmt.Sprintf("Record a new %s", k.name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := core.ParseAmount(amount)
			if err != nil {
				return err
			}
			d := core.DateOf(a.now())
			if date != "" {
				if d, err = core.ParseDate(date); err != nil {
					return err
				}
			}

			l, err := a.ledgerFor(cmd.Context())
			if err != nil {
				return err
			}
			id, err := k.add(cmd.Context(), l, row{amount: amt, label: strings.TrimSpace(label), description: strings.TrimSpace(description), date: d})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s #%d: %s %s on %s\n", k.name, id, core.FormatAmount(amt), strings.TrimSpace(label), d)
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 12.50 (required)")
	cmd.Flags().StringVar(&label, k.label, "", fmt.Sprintf("%s, e.g. %s (required)", k.label, strings.Join(k.labels, ", ")))
	cmd.Flags().StringVar(&description, "description", "", "optional free text")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired(k.label)
	return cmd
}

func (a *app) listCommand(k entryKind) *cobra.Command {
	var month, year string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s for a month (default: current month)", k.plural),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var period *core.Period
			if !all {
				p, err := core.ParsePeriod(month, year)
				if err != nil {
					return err
				}
				if p == nil {
					current := core.DateOf(a.now()).Period()
					p = &current
				}
				period = p
			}

			l, err := a.ledgerFor(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := k.list(cmd.Context(), l, period)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				if period == nil {
					fmt.Fprintf(out, "No %s recorded\n", k.plural)
				} else {
					fmt.Fprintf(out, "No %s found for %s\n", k.plural, period.Label())
				}
				return nil
			}
			return printRows(out, k, rows)
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month 1-12 (requires --year)")
	cmd.Flags().StringVar(&year, "year", "", "four digit year (requires --month)")
	cmd.Flags().BoolVar(&all, "all", false, "list every entry regardless of date")
	cmd.MarkFlagsMutuallyExclusive("all", "month")
	cmd.MarkFlagsMutuallyExclusive("all", "year")
	return cmd
}

func printRows(out io.Writer, k entryKind, rows []row) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tDATE\tAMOUNT\t%s\tDESCRIPTION\n", strings.ToUpper(k.label))
	for _, r := range rows {
		desc := r.description
		if desc == "" {
			desc = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.id, r.date, core.FormatAmount(r.amount), r.label, desc)
	}
	return w.Flush()
}

func (a *app) deleteCommand(k entryKind) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: fmt.Sprintf("Delete an %s by id", k.name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("%w: id must be a positive integer", core.ErrInvalidInput)
			}

			if !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Are you sure you want to delete this %s?", k.name))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
					return nil
				}
			}

			l, err := a.ledgerFor(cmd.Context())
			if err != nil {
				return err
			}
			removed, err := k.remove(cmd.Context(), l, id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%s #%d: %w", k.name, id, core.ErrNotFound)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s #%d\n", k.name, id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// confirm asks question and reports whether the answer was yes. EOF counts as no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (a *app) summaryCommand() *cobra.Command {
	var month, year string
	var back, forward int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals, balance and spending by category for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if back < 0 || forward < 0 {
				return fmt.Errorf("%w: --back and --forward must not be negative", core.ErrInvalidInput)
			}
			p, err := core.ParsePeriod(month, year)
			if err != nil {
				return err
			}

			now := a.now()
			cursor := core.DateOf(now)
			if p != nil {
				cursor = p.Start()
			}
			for i := 0; i < back; i++ {
				cursor = core.PrevMonth(cursor)
			}
			for i := 0; i < forward; i++ {
				next, ok := core.NextMonth(cursor, now)
				if !ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "Cannot navigate to future months")
					break
				}
				cursor = next
			}

			l, err := a.ledgerFor(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := l.FinancialSummary(cmd.Context(), cursor.Period())
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month 1-12 (requires --year, default current)")
	cmd.Flags().StringVar(&year, "year", "", "four digit year (requires --month)")
	cmd.Flags().IntVar(&back, "back", 0, "move N months back")
	cmd.Flags().IntVar(&forward, "forward", 0, "move N months forward, never past the current month")
	return cmd
}

func printSummary(out io.Writer, s core.FinancialSummary) error {
	fmt.Fprintf(out, "Summary for %s\n\n", s.Period.Label())

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Total income:\t%s\n", core.FormatAmount(s.TotalIncome))
	fmt.Fprintf(w, "Total expenses:\t%s\n", core.FormatAmount(s.TotalExpenses))
	fmt.Fprintf(w, "Balance:\t%s\n", signed(s.Balance))
	if err := w.Flush(); err != nil {
		return err
	}

	if len(s.Categories) == 0 {
		fmt.Fprintln(out, "\nNo expenses this month")
		return nil
	}

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tTOTAL")
	for _, c := range s.Categories {
		fmt.Fprintf(w, "%s\t%s\n", c.Category, core.FormatAmount(c.Total))
	}
	return w.Flush()
}

// signed prefixes non-negative balances with "+".
func signed(d decimal.Decimal) string {
	if d.IsNegative() {
		return core.FormatAmount(d)
	}
	return "+" + core.FormatAmount(d)
}

func (a *app) categoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List suggested expense categories and income sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Expense categories: %s\n", strings.Join(core.ExpenseCategories, ", "))
			fmt.Fprintf(out, "Income sources:     %s\n", strings.Join(core.IncomeSources, ", "))
			return nil
		},
	}
}

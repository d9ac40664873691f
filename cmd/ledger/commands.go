package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dafibh/ledger/internal/client"
	"github.com/spf13/cobra"
)

var (
	flagQuantity string
	flagYes      bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show budget, spending and recent expenses",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var addCmd = &cobra.Command{
	Use:   "add ITEM COST",
	Short: "Record an expense",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdd,
}

var budgetCmd = &cobra.Command{
	Use:   "budget [AMOUNT]",
	Short: "Set the budget (prompts with the current value when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBudget,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the budget and every expense",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List expenses, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	addCmd.Flags().StringVarP(&flagQuantity, "quantity", "q", "", "Quantity (default 1)")
	resetCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(statusCmd, addCmd, budgetCmd, resetCmd, listCmd)
}

// loadSession creates a session and fetches the ledger. With setup set, an
// unconfigured ledger first runs the initial budget prompt.
func loadSession(ctx context.Context, setup bool) (*client.Session, error) {
	s, err := newSession()
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	if setup && s.Mode() == client.ModeFirstTimeSetup {
		if err := runSetup(ctx, s, ""); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	s, err := loadSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	fmt.Print(renderView(s.Render()))
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	s, err := loadSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	fmt.Print(renderRows(s.Render()))
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := loadSession(ctx, true)
	if err != nil {
		return err
	}

	err = s.AddExpense(ctx, args[0], args[1], flagQuantity)
	if errors.Is(err, client.ErrMissingField) {
		return fmt.Errorf("item and cost are required: %w", err)
	}
	if err != nil {
		// The view was re-fetched regardless; show what the store holds now
		fmt.Print(renderView(s.Render()))
		return err
	}

	fmt.Println(successStyle.Render("  Expense added"))
	fmt.Print(renderView(s.Render()))
	return nil
}

func runBudget(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := newSession()
	if err != nil {
		return err
	}
	if err := s.Load(ctx); err != nil {
		return err
	}

	var amount string
	if len(args) == 1 {
		amount = args[0]
	}

	if s.Mode() == client.ModeFirstTimeSetup {
		if err := runSetup(ctx, s, amount); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("  Budget set"))
		fmt.Print(renderView(s.Render()))
		return nil
	}

	prefill, err := s.OpenEditor()
	if err != nil {
		return err
	}

	for {
		if amount == "" {
			v := s.Render()
			amount, err = promptAmount(v.Prompt.Title, prefill)
			if errors.Is(err, errAborted) {
				return s.CancelEdit()
			}
			if err != nil {
				return err
			}
		}

		err = s.SaveBudget(ctx, amount)
		var verr *client.ValidationError
		if errors.As(err, &verr) && len(args) == 0 {
			fmt.Fprintln(os.Stderr, errorStyle.Render("  "+describeError(err)))
			amount = ""
			continue
		}
		if err != nil {
			return err
		}
		break
	}

	fmt.Println(successStyle.Render("  Budget set"))
	fmt.Print(renderView(s.Render()))
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := loadSession(ctx, false)
	if err != nil {
		return err
	}

	var promptErr error
	confirm := func() bool {
		if flagYes {
			return true
		}
		ok, err := confirmReset()
		promptErr = err
		return ok
	}

	done, err := s.Reset(ctx, confirm)
	if promptErr != nil {
		return promptErr
	}
	if err != nil {
		return err
	}
	if !done {
		fmt.Println(mutedStyle.Render("  Nothing was deleted."))
		return nil
	}

	fmt.Println(successStyle.Render("  Data reset successfully"))
	fmt.Println(mutedStyle.Render("  Run `ledger budget` to enter a new initial balance."))
	return nil
}

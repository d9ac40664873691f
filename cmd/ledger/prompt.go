package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/dafibh/ledger/internal/client"
	"github.com/shopspring/decimal"
)

var errAborted = errors.New("aborted")

func validateAmount(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("an amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return errors.New("enter a number such as 250 or 99.50")
	}
	if d.IsNegative() {
		return errors.New("the amount cannot be negative")
	}
	return nil
}

// promptAmount asks for a budget amount. Ctrl+C returns errAborted.
func promptAmount(title, prefill string) (string, error) {
	value := prefill
	err := huh.NewInput().
		Title(title).
		Prompt("$ ").
		Value(&value).
		Validate(validateAmount).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return "", errAborted
	}
	return value, err
}

// confirmReset asks before the destructive reset
func confirmReset() (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title("Reset all data?").
		Description("This permanently deletes the budget and every expense.").
		Affirmative("Reset").
		Negative("Cancel").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

// runSetup keeps asking for the initial budget until the store accepts one.
// The prompt has no cancel; aborting it exits and leaves the ledger unset.
func runSetup(ctx context.Context, s *client.Session, amount string) error {
	for s.Mode() == client.ModeFirstTimeSetup {
		v := s.Render()
		if amount == "" {
			var err error
			amount, err = promptAmount(v.Prompt.Title, "")
			if err != nil {
				return err
			}
		}

		err := s.SaveBudget(ctx, amount)
		amount = ""
		var verr *client.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("  "+describeError(err)))
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

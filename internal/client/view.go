package client

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Prompt titles
const (
	TitleInitialBalance = "Enter Initial Balance"
	TitleSetBudget      = "Set Monthly Budget"
	EmptyListText       = "No transactions yet"
	dateLayout          = "Jan 2, 3:04 PM"
)

var (
	hundred = decimal.NewFromInt(100)
	printer = message.NewPrinter(language.AmericanEnglish)
)

// View is the presentation-ready state of a session
type View struct {
	Mode          Mode
	Budget        string
	TotalExpenses string
	Remaining     string
	ProgressWidth float64
	OverBudget    bool
	Rows          []Row
	EmptyText     string
	Prompt        *Prompt
	Notice        string
}

// Row is one rendered transaction
type Row struct {
	ID     int64
	Item   string
	Badge  string
	Date   string
	Amount string
}

// Prompt describes the open budget prompt, if any
type Prompt struct {
	Title       string
	Prefill     string
	Dismissible bool
}

// Render builds the view from the last snapshot. Nothing is recomputed
// from the transactions; every figure comes from the store.
func (s *Session) Render() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.snapshot.Balance
	v := View{
		Mode:          s.mode,
		Budget:        FormatCurrency(b.Budget),
		TotalExpenses: FormatCurrency(b.TotalExpenses),
		Remaining:     FormatCurrency(b.Remaining),
		ProgressWidth: ProgressWidth(b.Percentage),
		OverBudget:    b.OverBudget,
		Rows:          make([]Row, 0, len(s.snapshot.Transactions)),
		Notice:        s.notice,
	}

	for _, tx := range s.snapshot.Transactions {
		row := Row{
			ID:     tx.ID,
			Item:   tx.Item,
			Date:   tx.Date.In(s.loc).Format(dateLayout),
			Amount: FormatCurrency(tx.LineTotal.Neg()),
		}
		if tx.Quantity > 1 {
			row.Badge = "x" + strconv.Itoa(int(tx.Quantity))
		}
		v.Rows = append(v.Rows, row)
	}
	if len(v.Rows) == 0 {
		v.EmptyText = EmptyListText
	}

	switch s.mode {
	case ModeFirstTimeSetup:
		v.Prompt = &Prompt{Title: TitleInitialBalance}
	case ModeEditing:
		v.Prompt = &Prompt{Title: TitleSetBudget, Prefill: s.prefill, Dismissible: true}
	}

	return v
}

// FormatCurrency renders an amount as dollars with grouping and two
// fractional digits, e.g. $1,234.50 or -$20.00.
func FormatCurrency(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	n, err := strconv.ParseInt(whole, 10, 64)
	if err == nil {
		whole = printer.Sprintf("%d", n)
	}

	sign := ""
	if d.Round(2).IsNegative() {
		sign = "-"
	}
	return sign + "$" + whole + "." + frac
}

// ProgressWidth clamps a store percentage to [0, 100] for display
func ProgressWidth(percentage decimal.Decimal) float64 {
	if percentage.IsNegative() {
		return 0
	}
	if percentage.GreaterThan(hundred) {
		return 100
	}
	return percentage.InexactFloat64()
}

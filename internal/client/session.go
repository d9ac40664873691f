package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Mode is the client view state
type Mode int

const (
	ModeNormal Mode = iota
	ModeFirstTimeSetup
	ModeEditing
	ModeReinitializing
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeFirstTimeSetup:
		return "first-time-setup"
	case ModeEditing:
		return "editing"
	case ModeReinitializing:
		return "reinitializing"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Snapshot is the last store state fetched successfully
type Snapshot struct {
	Balance      Balance
	Transactions []Expense
	FetchedAt    time.Time
}

// Session drives one user's view of a ledger. It holds no authoritative
// state: every write is followed by a read-back from the store, and the
// operations are serialised so no two writes are in flight at once.
type Session struct {
	store Store

	mu       sync.Mutex
	mode     Mode
	snapshot Snapshot
	notice   string
	prefill  string
	loc      *time.Location
	now      func() time.Time
}

// NewSession creates a session over store
func NewSession(store Store) *Session {
	return &Session{
		store: store,
		mode:  ModeNormal,
		loc:   time.Local,
		now:   time.Now,
	}
}

// WithLocation sets the zone used for rendered dates
func (s *Session) WithLocation(loc *time.Location) *Session {
	s.loc = loc
	return s
}

// Mode returns the current mode
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Notice returns the last transport failure message, empty after a good fetch
func (s *Session) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

// Snapshot returns a copy of the last fetched state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot
	snap.Transactions = append([]Expense(nil), s.snapshot.Transactions...)
	return snap
}

// Load fetches the aggregates and transaction list. An unconfigured ledger
// puts the session into first-time setup.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Session) load(ctx context.Context) error {
	if err := s.refresh(ctx, true); err != nil {
		return err
	}

	switch {
	case !s.snapshot.Balance.Configured:
		s.mode = ModeFirstTimeSetup
		s.prefill = ""
	case s.mode == ModeFirstTimeSetup || s.mode == ModeReinitializing:
		s.mode = ModeNormal
	}
	return nil
}

// refresh re-reads the store into the snapshot. On failure the previous
// snapshot stays in place and the notice is set.
func (s *Session) refresh(ctx context.Context, withExpenses bool) error {
	var (
		balance  *Balance
		expenses []Expense
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = s.store.GetBalance(gctx)
		return err
	})
	if withExpenses {
		g.Go(func() error {
			var err error
			expenses, err = s.store.ListExpenses(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.fail(err)
		return err
	}

	s.snapshot.Balance = *balance
	if withExpenses {
		s.snapshot.Transactions = expenses
	}
	s.snapshot.FetchedAt = s.now()
	s.notice = ""
	return nil
}

func (s *Session) fail(err error) {
	if IsTransport(err) {
		s.notice = err.Error()
	}
}

// AddExpense submits an expense and then re-fetches the aggregates and the
// transaction list whether or not the store accepted it.
func (s *Session) AddExpense(ctx context.Context, item, cost, quantity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeFirstTimeSetup {
		return ErrSetupRequired
	}

	item = strings.TrimSpace(item)
	cost = strings.TrimSpace(cost)
	quantity = strings.TrimSpace(quantity)
	if item == "" {
		return fmt.Errorf("item: %w", ErrMissingField)
	}
	if cost == "" {
		return fmt.Errorf("cost: %w", ErrMissingField)
	}
	if quantity == "" {
		quantity = "1"
	}

	writeErr := s.store.AddExpense(ctx, item, cost, quantity)
	readErr := s.refresh(ctx, true)
	// A successful read-back clears the notice; the failed write still owns it.
	s.fail(writeErr)

	if writeErr != nil {
		return writeErr
	}
	return readErr
}

// OpenEditor moves from Normal to Editing and returns the current budget
// formatted for the prompt.
func (s *Session) OpenEditor() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.mode {
	case ModeNormal:
		s.mode = ModeEditing
		s.prefill = s.snapshot.Balance.Budget.StringFixed(2)
		return s.prefill, nil
	case ModeEditing:
		return s.prefill, nil
	case ModeFirstTimeSetup:
		return "", ErrSetupRequired
	default:
		return "", ErrInvalidTransition
	}
}

// CancelEdit closes the budget editor. First-time setup cannot be cancelled.
func (s *Session) CancelEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.mode {
	case ModeEditing:
		s.mode = ModeNormal
		s.prefill = ""
		return nil
	case ModeFirstTimeSetup:
		return ErrCancelUnavailable
	case ModeNormal:
		return nil
	default:
		return ErrInvalidTransition
	}
}

// SaveBudget submits the budget from the setup or edit prompt. On success
// the prompt closes and only the aggregates are re-fetched; on failure the
// mode is unchanged so the prompt stays open.
func (s *Session) SaveBudget(ctx context.Context, amount string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeEditing && s.mode != ModeFirstTimeSetup {
		return ErrInvalidTransition
	}

	amount = strings.TrimSpace(amount)
	if amount == "" {
		return fmt.Errorf("amount: %w", ErrMissingField)
	}

	if err := s.store.SetBudget(ctx, amount); err != nil {
		s.fail(err)
		return err
	}

	s.mode = ModeNormal
	s.prefill = ""
	return s.refresh(ctx, false)
}

// Reset clears the ledger once confirm returns true and reloads from
// scratch. It reports whether the reset was performed.
func (s *Session) Reset(ctx context.Context, confirm func() bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if confirm == nil || !confirm() {
		return false, nil
	}

	previous := s.mode
	s.mode = ModeReinitializing
	if err := s.store.Reset(ctx); err != nil {
		s.mode = previous
		s.fail(err)
		return false, err
	}

	s.snapshot = Snapshot{}
	s.prefill = ""
	if err := s.load(ctx); err != nil {
		// The budget is gone even though the reload failed.
		s.mode = ModeFirstTimeSetup
		return true, err
	}
	return true, nil
}

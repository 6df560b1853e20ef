package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/gateway"
	"budget/internal/log"
)

// ChangePublisher announces confirmed writes. *amqp.Client satisfies it.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

type Option func(*BudgetStore)

func WithPublisher(p ChangePublisher) Option {
	return func(s *BudgetStore) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *BudgetStore) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *BudgetStore) { s.log = log.NewStructuredLogger(l) }
}

// WithCloser registers the cleanup run by Close, typically the backend teardown.
func WithCloser(fn func() error) Option {
	return func(s *BudgetStore) { s.closer = fn }
}

// BudgetStore owns the in-memory snapshot and applies write-through mutations:
// the gateway write happens first and the snapshot is edited only once it succeeds.
//
// Mutations are not serialized against each other. mu guards the snapshot edit
// itself and is never held across a gateway call, so concurrent mutations each
// apply their edit when their own write resolves.
type BudgetStore struct {
	gw        gateway.Gateway
	publisher ChangePublisher
	now       func() time.Time
	log       *log.StructuredLogger
	closer    func() error

	// loading counts loads in flight plus one until the first load finishes.
	loading   atomic.Int32
	firstLoad sync.Once

	mu   sync.RWMutex
	snap core.Snapshot
}

func NewBudgetStore(gw gateway.Gateway, opts ...Option) *BudgetStore {
	s := &BudgetStore{
		gw:  gw,
		now: time.Now,
		log: log.NewStructuredLogger(log.Default(log.ComponentStore)),
		snap: core.Snapshot{
			Transactions:  []core.Transaction{},
			Categories:    core.DefaultCategories(),
			Goals:         []core.Goal{},
			MonthlyBudget: decimal.Zero,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.loading.Store(1)
	return s
}

// Init performs the first load.
func (s *BudgetStore) Init(ctx context.Context) error {
	return s.FetchData(ctx)
}

func (s *BudgetStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// Loading reports whether a load is in flight (or the first one has not finished).
func (s *BudgetStore) Loading() bool {
	return s.loading.Load() > 0
}

// Data returns a deep copy of the current snapshot.
func (s *BudgetStore) Data() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Summary recomputes every derived value from the current snapshot.
func (s *BudgetStore) Summary(now time.Time) core.Summary {
	return core.Summarize(s.Data(), now)
}

// Now is the store's reference time for derived reads.
func (s *BudgetStore) Now() time.Time {
	return s.now()
}

// FetchData reloads the whole snapshot with four concurrent reads. Empty
// categories fall back to the defaults and a missing settings row means a
// budget of 0; any other failure leaves the previous snapshot in place.
func (s *BudgetStore) FetchData(ctx context.Context) error {
	s.loading.Add(1)
	defer func() {
		s.loading.Add(-1)
		s.firstLoad.Do(func() { s.loading.Add(-1) })
	}()

	var (
		cats     []core.Category
		txs      []core.Transaction
		goals    []core.Goal
		settings core.Settings
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cats, err = s.gw.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		txs, err = s.gw.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		goals, err = s.gw.ListGoals(gctx)
		if err != nil {
			return fmt.Errorf("load goals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		settings, err = s.gw.GetSettings(gctx)
		if errors.Is(err, gateway.ErrNotFound) {
			settings = core.Settings{ID: core.SettingsID, MonthlyBudget: decimal.Zero}
			return nil
		}
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.LogError(ctx, "Failed to load budget data", err, log.OpLoad, nil)
		return err
	}

	if len(cats) == 0 {
		cats = core.DefaultCategories()
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	if goals == nil {
		goals = []core.Goal{}
	}

	s.mu.Lock()
	s.snap = core.Snapshot{
		Transactions:  txs,
		Categories:    cats,
		Goals:         goals,
		MonthlyBudget: settings.MonthlyBudget,
	}
	s.mu.Unlock()

	s.log.Logger().InfoContext(ctx, "Budget data loaded",
		"transactions", len(txs),
		"categories", len(cats),
		"goals", len(goals),
		log.FieldBudget, settings.MonthlyBudget.String())
	return nil
}

func (s *BudgetStore) AddTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if in.Type == core.Expense {
		if _, ok := s.Data().FindCategory(in.Category); !ok {
			return core.Transaction{}, &core.ValidationError{Field: "category", Err: core.ErrUnknownCategory}
		}
	}

	t, err := s.gw.InsertTransaction(ctx, in)
	if err != nil {
		s.log.LogError(ctx, "Failed to add transaction", err, log.OpCreate, log.NewFields().WithRecord(string(amqp.KindTransaction), ""))
		return core.Transaction{}, err
	}

	s.mu.Lock()
	s.snap.Transactions = append([]core.Transaction{t}, s.snap.Transactions...)
	s.mu.Unlock()

	s.log.LogMutation(ctx, log.OpCreate, string(amqp.KindTransaction), t.ID,
		log.NewFields().WithTransaction(string(t.Type), t.Amount.String(), t.CategoryID()))
	s.publish(ctx, amqp.KindTransaction, amqp.OpCreated, t.ID, t)
	return t, nil
}

// UpdateTransaction applies p remotely and replaces the local record with the
// one the gateway returns.
func (s *BudgetStore) UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}
	snap := s.Data()
	if cur, ok := snap.FindTransaction(id); ok {
		merged := p.Apply(cur)
		if err := merged.Validate(); err != nil {
			return core.Transaction{}, err
		}
		if p.Category != nil && merged.Type == core.Expense {
			if _, ok := snap.FindCategory(merged.CategoryID()); !ok {
				return core.Transaction{}, &core.ValidationError{Field: "category", Err: core.ErrUnknownCategory}
			}
		}
	}

	t, err := s.gw.UpdateTransaction(ctx, id, p)
	if err != nil {
		s.log.LogError(ctx, "Failed to update transaction", err, log.OpUpdate, log.NewFields().WithRecord(string(amqp.KindTransaction), id))
		return core.Transaction{}, err
	}

	s.mu.Lock()
	for i := range s.snap.Transactions {
		if s.snap.Transactions[i].ID == id {
			s.snap.Transactions[i] = t
		}
	}
	s.mu.Unlock()

	s.log.LogMutation(ctx, log.OpUpdate, string(amqp.KindTransaction), id, nil)
	s.publish(ctx, amqp.KindTransaction, amqp.OpUpdated, id, t)
	return t, nil
}

func (s *BudgetStore) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.gw.DeleteTransaction(ctx, id); err != nil {
		s.log.LogError(ctx, "Failed to delete transaction", err, log.OpDelete, log.NewFields().WithRecord(string(amqp.KindTransaction), id))
		return err
	}

	s.mu.Lock()
	s.snap.Transactions = removeTransaction(s.snap.Transactions, id)
	s.mu.Unlock()

	s.log.LogMutation(ctx, log.OpDelete, string(amqp.KindTransaction), id, nil)
	s.publish(ctx, amqp.KindTransaction, amqp.OpDeleted, id, nil)
	return nil
}

// AddGoal stamps the creation time from the store clock before the write.
func (s *BudgetStore) AddGoal(ctx context.Context, in core.GoalInput) (core.Goal, error) {
	if err := in.Validate(); err != nil {
		return core.Goal{}, err
	}

	g, err := s.gw.InsertGoal(ctx, core.NewGoal{GoalInput: in, CreatedAt: s.now()})
	if err != nil {
		s.log.LogError(ctx, "Failed to add goal", err, log.OpCreate, log.NewFields().WithRecord(string(amqp.KindGoal), ""))
		return core.Goal{}, err
	}

	s.mu.Lock()
	s.snap.Goals = append([]core.Goal{g}, s.snap.Goals...)
	s.mu.Unlock()

	s.log.LogMutation(ctx, log.OpCreate, string(amqp.KindGoal), g.ID, log.LogFields{log.FieldGoalTitle: g.Title})
	s.publish(ctx, amqp.KindGoal, amqp.OpCreated, g.ID, g)
	return g, nil
}

func (s *BudgetStore) UpdateGoal(ctx context.Context, id string, p core.GoalPatch) (core.Goal, error) {
	if err := p.Validate(); err != nil {
		return core.Goal{}, err
	}
	if cur, ok := s.Data().FindGoal(id); ok {
		if err := p.Apply(cur).Validate(); err != nil {
			return core.Goal{}, err
		}
	}

	g, err := s.gw.UpdateGoal(ctx, id, p)
	if err != nil {
		s.log.LogError(ctx, "Failed to update goal", err, log.OpUpdate, log.NewFields().WithRecord(string(amqp.KindGoal), id))
		return core.Goal{}, err
	}

	s.mu.Lock()
	for i := range s.snap.Goals {
		if s.snap.Goals[i].ID == id {
			s.snap.Goals[i] = g
		}
	}
	s.mu.Unlock()

	s.log.LogMutation(ctx, log.OpUpdate, string(amqp.KindGoal), id, nil)
	s.publish(ctx, amqp.KindGoal, amqp.OpUpdated, id, g)
	return g, nil
}

// ContributeToGoal adds delta to the saved amount of a goal in the snapshot.
func (s *BudgetStore) ContributeToGoal(ctx context.Context, id string, delta decimal.Decimal) (core.Goal, error) {
	cur, ok := s.Data().FindGoal(id)
	if !ok {
		return core.Goal{}, gateway.ErrNotFound
	}
	p, err := cur.Contribute(delta)
	if err != nil {
		return core.Goal{}, err
	}
	return s.UpdateGoal(ctx, id, p)
}

func (s *BudgetStore) DeleteGoal(ctx context.Context, id string) error {
	if err := s.gw.DeleteGoal(ctx, id); err != nil {
		s.log.LogError(ctx, "Failed to delete goal", err, log.OpDelete, log.NewFields().WithRecord(string(amqp.KindGoal), id))
		return err
	}

	s.mu.Lock()
	out := s.snap.Goals[:0:0]
	for _, g := range s.snap.Goals {
		if g.ID != id {
			out = append(out, g)
		}
	}
	s.snap.Goals = out
	s.mu.Unlock()

	s.log.LogMutation(ctx, log.OpDelete, string(amqp.KindGoal), id, nil)
	s.publish(ctx, amqp.KindGoal, amqp.OpDeleted, id, nil)
	return nil
}

// AddCategory appends a category with a caller-chosen id.
func (s *BudgetStore) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if _, exists := s.Data().FindCategory(c.ID); exists {
		return core.Category{}, &core.ValidationError{Field: "id", Err: core.ErrDuplicateCategory}
	}

	created, err := s.gw.InsertCategory(ctx, c)
	if err != nil {
		s.log.LogError(ctx, "Failed to add category", err, log.OpCreate, log.NewFields().WithRecord(string(amqp.KindCategory), c.ID))
		return core.Category{}, err
	}

	s.mu.Lock()
	s.snap.Categories = append(s.snap.Categories, created)
	s.mu.Unlock()

	s.log.LogMutation(ctx, log.OpCreate, string(amqp.KindCategory), created.ID, nil)
	s.publish(ctx, amqp.KindCategory, amqp.OpCreated, created.ID, created)
	return created, nil
}

func (s *BudgetStore) UpdateCategory(ctx context.Context, id string, p core.CategoryPatch) (core.Category, error) {
	if err := p.Validate(); err != nil {
		return core.Category{}, err
	}

	c, err := s.gw.UpdateCategory(ctx, id, p)
	if err != nil {
		s.log.LogError(ctx, "Failed to update category", err, log.OpUpdate, log.NewFields().WithRecord(string(amqp.KindCategory), id))
		return core.Category{}, err
	}

	s.mu.Lock()
	for i := range s.snap.Categories {
		if s.snap.Categories[i].ID == id {
			s.snap.Categories[i] = c
		}
	}
	s.mu.Unlock()

	s.log.LogMutation(ctx, log.OpUpdate, string(amqp.KindCategory), id, nil)
	s.publish(ctx, amqp.KindCategory, amqp.OpUpdated, id, c)
	return c, nil
}

// DeleteCategory removes the category only. Transactions that reference it are
// left untouched and keep the dangling id.
func (s *BudgetStore) DeleteCategory(ctx context.Context, id string) error {
	if err := s.gw.DeleteCategory(ctx, id); err != nil {
		s.log.LogError(ctx, "Failed to delete category", err, log.OpDelete, log.NewFields().WithRecord(string(amqp.KindCategory), id))
		return err
	}

	s.mu.Lock()
	out := s.snap.Categories[:0:0]
	for _, c := range s.snap.Categories {
		if c.ID != id {
			out = append(out, c)
		}
	}
	s.snap.Categories = out
	s.mu.Unlock()

	s.log.LogMutation(ctx, log.OpDelete, string(amqp.KindCategory), id, nil)
	s.publish(ctx, amqp.KindCategory, amqp.OpDeleted, id, nil)
	return nil
}

// SetMonthlyBudget updates the settings row and inserts it when the update
// reports ErrNotFound. Any other update error, or an insert error, is returned.
func (s *BudgetStore) SetMonthlyBudget(ctx context.Context, value decimal.Decimal) error {
	if err := core.ValidateBudget(value); err != nil {
		return err
	}

	settings, err := s.gw.UpdateSettings(ctx, value)
	if errors.Is(err, gateway.ErrNotFound) {
		settings, err = s.gw.InsertSettings(ctx, core.Settings{ID: core.SettingsID, MonthlyBudget: value})
	}
	if err != nil {
		s.log.LogError(ctx, "Failed to set monthly budget", err, log.OpUpdate, log.LogFields{log.FieldBudget: value.String()})
		return err
	}

	s.mu.Lock()
	s.snap.MonthlyBudget = settings.MonthlyBudget
	s.mu.Unlock()

	s.log.LogMutation(ctx, log.OpUpdate, string(amqp.KindSettings), "1", log.LogFields{log.FieldBudget: settings.MonthlyBudget.String()})
	s.publish(ctx, amqp.KindSettings, amqp.OpUpdated, "1", settings)
	return nil
}

// publish never fails the caller: the write is already confirmed.
func (s *BudgetStore) publish(ctx context.Context, kind amqp.ChangeKind, op amqp.ChangeOp, id string, payload any) {
	if s.publisher == nil {
		return
	}
	msg, err := amqp.NewChangeMessage(kind, op, id, payload)
	if err == nil {
		err = s.publisher.PublishChange(ctx, msg)
	}
	if err != nil {
		s.log.Logger().WarnContext(ctx, "Failed to publish change message",
			log.FieldKind, kind,
			log.FieldOperation, op,
			log.FieldID, id,
			log.FieldError, err)
	}
}

func removeTransaction(txs []core.Transaction, id string) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

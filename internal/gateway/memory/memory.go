package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/gateway"
)

// Store is a process-local gateway. Records are copied in and out so callers
// never share memory with the store.
type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	cats     []core.Category
	txs      []core.Transaction
	goals    []core.Goal
	settings *core.Settings
}

var _ gateway.Gateway = (*Store)(nil)

func New(cats []core.Category) *Store {
	return &Store{now: time.Now, cats: dedupeCategories(cats)}
}

// NewFromFiles seeds categories from base/seed_categories.txt. Each line is
// id|name|color|icon; blank lines and # comments are skipped. A missing file
// yields an empty store.
func NewFromFiles(base string) *Store {
	return New(readCategories(filepath.Join(base, "seed_categories.txt")))
}

// WithClock replaces the clock used to stamp new transactions.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.txs))
	for i, t := range s.txs {
		out[i] = copyTransaction(t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) InsertTransaction(_ context.Context, in core.TransactionInput) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := in.Normalize().Record(uuid.NewString(), s.now())
	s.txs = append(s.txs, t)
	return copyTransaction(t), nil
}

func (s *Store) UpdateTransaction(_ context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.txs {
		if t.ID == id {
			s.txs[i] = p.Apply(t)
			return copyTransaction(s.txs[i]), nil
		}
	}
	return core.Transaction{}, gateway.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.txs {
		if t.ID == id {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return gateway.ErrNotFound
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category{}, s.cats...), nil
}

func (s *Store) InsertCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cats {
		if existing.ID == c.ID {
			return core.Category{}, gateway.ErrConflict
		}
	}
	s.cats = append(s.cats, c)
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, id string, p core.CategoryPatch) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.cats {
		if c.ID == id {
			s.cats[i] = p.Apply(c)
			return s.cats[i], nil
		}
	}
	return core.Category{}, gateway.ErrNotFound
}

// DeleteCategory removes only the category row; transactions keep their reference.
func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.cats {
		if c.ID == id {
			s.cats = append(s.cats[:i], s.cats[i+1:]...)
			return nil
		}
	}
	return gateway.ErrNotFound
}

func (s *Store) ListGoals(_ context.Context) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Goal{}, s.goals...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) InsertGoal(_ context.Context, g core.NewGoal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := g.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	rec := g.Record(uuid.NewString(), created)
	s.goals = append(s.goals, rec)
	return rec, nil
}

func (s *Store) UpdateGoal(_ context.Context, id string, p core.GoalPatch) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.goals {
		if g.ID == id {
			s.goals[i] = p.Apply(g)
			return s.goals[i], nil
		}
	}
	return core.Goal{}, gateway.ErrNotFound
}

func (s *Store) DeleteGoal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.goals {
		if g.ID == id {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return nil
		}
	}
	return gateway.ErrNotFound
}

func (s *Store) GetSettings(_ context.Context) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return core.Settings{}, gateway.ErrNotFound
	}
	return *s.settings, nil
}

func (s *Store) UpdateSettings(_ context.Context, monthlyBudget decimal.Decimal) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return core.Settings{}, gateway.ErrNotFound
	}
	s.settings.MonthlyBudget = monthlyBudget
	return *s.settings, nil
}

func (s *Store) InsertSettings(_ context.Context, in core.Settings) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings != nil {
		return core.Settings{}, gateway.ErrConflict
	}
	in.ID = core.SettingsID
	s.settings = &in
	return in, nil
}

func copyTransaction(t core.Transaction) core.Transaction {
	if t.Category != nil {
		id := *t.Category
		t.Category = &id
	}
	return t
}

func readCategories(path string) []core.Category {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Category
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "|")
		for len(parts) < 4 {
			parts = append(parts, "")
		}
		c := core.Category{
			ID:    strings.TrimSpace(parts[0]),
			Name:  strings.TrimSpace(parts[1]),
			Color: strings.TrimSpace(parts[2]),
			Icon:  strings.TrimSpace(parts[3]),
		}
		if c.Name == "" {
			c.Name = c.ID
		}
		out = append(out, c)
	}
	return out
}

func dedupeCategories(in []core.Category) []core.Category {
	seen := map[string]struct{}{}
	out := make([]core.Category, 0, len(in))
	for _, c := range in {
		if strings.TrimSpace(c.ID) == "" {
			continue
		}
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/ranker/internal/domain/model"
	"github.com/okian/ranker/pkg/metrics"
)

const memoryStoreName = "memory"

// memState is the data a transaction reads and writes. Score slices are
// append-only, so a snapshot may share their backing arrays.
type memState struct {
	users      map[model.UserID]model.User
	scores     map[model.UserID][]model.Score
	ranks      map[model.UserID]model.Rank
	nextRankID int64
}

// MemoryStore is a mutex-guarded, in-memory Store.
//
// Transactions run against a snapshot and are serialized; on success the
// rank table of the snapshot replaces the live one. Ranks are only ever
// written inside transactions, so concurrent AddScore calls are never lost.
type MemoryStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	state       memState
	nextUserID  model.UserID
	nextScoreID int64
	closed      bool

	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		state: memState{
			users:  make(map[model.UserID]model.User),
			scores: make(map[model.UserID][]model.Score),
			ranks:  make(map[model.UserID]model.Rank),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser implements Store.CreateUser.
func (s *MemoryStore) CreateUser(ctx context.Context, name string) (model.User, error) {
	defer observe("create_user", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.User{}, Persistence("memory.CreateUser", ErrClosed)
	}
	s.nextUserID++
	u := model.User{ID: s.nextUserID, Name: name, CreatedAt: s.now()}
	s.state.users[u.ID] = u
	return u, nil
}

// AddScore implements Store.AddScore.
func (s *MemoryStore) AddScore(ctx context.Context, userID model.UserID, value int64) (model.Score, error) {
	defer observe("add_score", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Score{}, Persistence("memory.AddScore", ErrClosed)
	}
	if _, ok := s.state.users[userID]; !ok {
		return model.Score{}, ErrUnknownUser
	}
	s.nextScoreID++
	sc := model.Score{ID: s.nextScoreID, UserID: userID, Value: value, CreatedAt: s.now()}
	s.state.scores[userID] = append(s.state.scores[userID], sc)
	return sc, nil
}

// DeleteScores implements Store.DeleteScores.
func (s *MemoryStore) DeleteScores(ctx context.Context, userID model.UserID) (int, error) {
	defer observe("delete_scores", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, Persistence("memory.DeleteScores", ErrClosed)
	}
	n := len(s.state.scores[userID])
	delete(s.state.scores, userID)
	return n, nil
}

// RunInTx implements Store.RunInTx.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return Persistence("memory.RunInTx", ErrClosed)
	}
	snap := s.state.clone()
	s.mu.RUnlock()

	tx := &memTx{state: &snap, now: s.now}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return Persistence("memory.RunInTx", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Persistence("memory.RunInTx", ErrClosed)
	}
	s.state.ranks = snap.ranks
	s.state.nextRankID = snap.nextRankID
	return nil
}

// Close implements Store.Close.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// view runs fn against the live state under the read lock.
func (s *MemoryStore) view(op string, fn func(tx *memTx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Persistence("memory."+op, ErrClosed)
	}
	return fn(&memTx{state: &s.state, now: s.now})
}

// ScoredUserIDs implements Reader.ScoredUserIDs.
func (s *MemoryStore) ScoredUserIDs(ctx context.Context) (ids []model.UserID, err error) {
	err = s.view("ScoredUserIDs", func(tx *memTx) error {
		ids, err = tx.ScoredUserIDs(ctx)
		return err
	})
	return ids, err
}

// SumScores implements Reader.SumScores.
func (s *MemoryStore) SumScores(ctx context.Context, userID model.UserID) (total int64, err error) {
	err = s.view("SumScores", func(tx *memTx) error {
		total, err = tx.SumScores(ctx, userID)
		return err
	})
	return total, err
}

// ScoreTotals implements Reader.ScoreTotals.
func (s *MemoryStore) ScoreTotals(ctx context.Context) (totals []model.UserTotal, err error) {
	err = s.view("ScoreTotals", func(tx *memTx) error {
		totals, err = tx.ScoreTotals(ctx)
		return err
	})
	return totals, err
}

// FindRankByUser implements Reader.FindRankByUser.
func (s *MemoryStore) FindRankByUser(ctx context.Context, userID model.UserID) (r model.Rank, err error) {
	err = s.view("FindRankByUser", func(tx *memTx) error {
		r, err = tx.FindRankByUser(ctx, userID)
		return err
	})
	return r, err
}

// ListRanks implements Reader.ListRanks.
func (s *MemoryStore) ListRanks(ctx context.Context) (ranks []model.Rank, err error) {
	err = s.view("ListRanks", func(tx *memTx) error {
		ranks, err = tx.ListRanks(ctx)
		return err
	})
	return ranks, err
}

// CountRanks implements Reader.CountRanks.
func (s *MemoryStore) CountRanks(ctx context.Context) (n int, err error) {
	err = s.view("CountRanks", func(tx *memTx) error {
		n, err = tx.CountRanks(ctx)
		return err
	})
	return n, err
}

func (st memState) clone() memState {
	c := memState{
		users:      st.users,
		scores:     make(map[model.UserID][]model.Score, len(st.scores)),
		ranks:      make(map[model.UserID]model.Rank, len(st.ranks)),
		nextRankID: st.nextRankID,
	}
	for id, list := range st.scores {
		c.scores[id] = list[:len(list):len(list)]
	}
	for id, r := range st.ranks {
		c.ranks[id] = r
	}
	return c
}

// memTx implements Tx over a memState.
type memTx struct {
	state *memState
	now   func() time.Time
}

func (t *memTx) ScoredUserIDs(ctx context.Context) ([]model.UserID, error) {
	defer observe("scored_user_ids", time.Now())
	ids := make([]model.UserID, 0, len(t.state.scores))
	for id, list := range t.state.scores {
		if len(list) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (t *memTx) SumScores(ctx context.Context, userID model.UserID) (int64, error) {
	defer observe("sum_scores", time.Now())
	var total int64
	for _, sc := range t.state.scores[userID] {
		total += sc.Value
	}
	return total, nil
}

func (t *memTx) ScoreTotals(ctx context.Context) ([]model.UserTotal, error) {
	defer observe("score_totals", time.Now())
	ids, _ := t.ScoredUserIDs(ctx)
	totals := make([]model.UserTotal, 0, len(ids))
	for _, id := range ids {
		total, _ := t.SumScores(ctx, id)
		totals = append(totals, model.UserTotal{UserID: id, Total: total})
	}
	return totals, nil
}

func (t *memTx) FindRankByUser(ctx context.Context, userID model.UserID) (model.Rank, error) {
	defer observe("find_rank", time.Now())
	r, ok := t.state.ranks[userID]
	if !ok {
		return model.Rank{}, ErrNotFound
	}
	return r, nil
}

func (t *memTx) ListRanks(ctx context.Context) ([]model.Rank, error) {
	defer observe("list_ranks", time.Now())
	out := make([]model.Rank, 0, len(t.state.ranks))
	for _, r := range t.state.ranks {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (t *memTx) CountRanks(ctx context.Context) (int, error) {
	return len(t.state.ranks), nil
}

func (t *memTx) CreateRank(ctx context.Context, r *model.Rank) error {
	defer observe("create_rank", time.Now())
	if _, ok := t.state.ranks[r.UserID]; ok {
		return Persistence("memory.CreateRank", fmt.Errorf("%w: user %d", ErrDuplicateRank, r.UserID))
	}
	t.state.nextRankID++
	now := t.now()
	r.ID = t.state.nextRankID
	r.CreatedAt = now
	r.UpdatedAt = now
	t.state.ranks[r.UserID] = *r
	return nil
}

func (t *memTx) UpdateRank(ctx context.Context, r *model.Rank) error {
	defer observe("update_rank", time.Now())
	existing, ok := t.state.ranks[r.UserID]
	if !ok || existing.ID != r.ID {
		return ErrNotFound
	}
	existing.Rank = r.Rank
	existing.Score = r.Score
	existing.UpdatedAt = t.now()
	t.state.ranks[r.UserID] = existing
	*r = existing
	return nil
}

func (t *memTx) DeleteRanksExcept(ctx context.Context, keep []model.UserID) (int, error) {
	defer observe("delete_ranks", time.Now())
	keepSet := make(map[model.UserID]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	removed := 0
	for id := range t.state.ranks {
		if _, ok := keepSet[id]; !ok {
			delete(t.state.ranks, id)
			removed++
		}
	}
	return removed, nil
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryQueryLatency(memoryStoreName, op, float64(time.Since(start).Microseconds())/1000)
}

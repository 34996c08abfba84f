package history

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"policy-guide/internal/storage"

	"github.com/stretchr/testify/require"
)

type failingKV struct {
	getErr error
	setErr error
	value  string
	ok     bool
}

func (f *failingKV) Get(context.Context, string) (string, bool, error) {
	return f.value, f.ok, f.getErr
}

func (f *failingKV) Set(_ context.Context, _ string, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.value, f.ok = value, true
	return nil
}

func TestOpenEmptyWhenAbsent(t *testing.T) {
	s := Open(context.Background(), storage.NewMemory())
	require.Equal(t, 0, s.Len())
	require.Empty(t, s.Items())
}

func TestOpenTreatsCorruptDataAsEmpty(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"{not json", `{"query":"x"}`, `"just a string"`} {
		kv := storage.NewMemory()
		require.NoError(t, kv.Set(ctx, StorageKey, raw))

		s := Open(ctx, kv)
		require.Equal(t, 0, s.Len(), "raw=%q", raw)
	}
}

func TestOpenTreatsReadErrorAsEmpty(t *testing.T) {
	s := Open(context.Background(), &failingKV{getErr: errors.New("disk gone")})
	require.Equal(t, 0, s.Len())
}

func TestAppendInsertsAtHead(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemory())

	_, err := s.Append(ctx, "q1", "<p>a1</p>", "a1")
	require.NoError(t, err)
	_, err = s.Append(ctx, "q2", "<p>a2</p>", "a2")
	require.NoError(t, err)

	head, ok := s.Get(0)
	require.True(t, ok)
	require.Equal(t, "q2", head.Query)
	tail, ok := s.Get(1)
	require.True(t, ok)
	require.Equal(t, "q1", tail.Query)
}

func TestAppendEvictsOldestBeyondCap(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemory())

	for i := 0; i < MaxItems+7; i++ {
		_, err := s.Append(ctx, fmt.Sprintf("q%d", i), fmt.Sprintf("r%d", i), "")
		require.NoError(t, err)
		require.LessOrEqual(t, s.Len(), MaxItems)
	}

	require.Equal(t, MaxItems, s.Len())
	head, _ := s.Get(0)
	require.Equal(t, fmt.Sprintf("q%d", MaxItems+6), head.Query)
	last, _ := s.Get(MaxItems - 1)
	require.Equal(t, "q7", last.Query, "the seven oldest entries should be gone")
}

func TestAppendSuppressesAdjacentDuplicate(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := Open(ctx, kv)

	added, err := s.Append(ctx, "same", "<p>r</p>", "r")
	require.NoError(t, err)
	require.True(t, added)
	writes := kv.Writes()

	added, err = s.Append(ctx, "same", "<p>r</p>", "r")
	require.NoError(t, err)
	require.False(t, added)
	require.Equal(t, 1, s.Len())
	require.Equal(t, writes, kv.Writes(), "a suppressed duplicate must not write")
}

func TestAppendKeepsNonAdjacentDuplicates(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemory())

	_, _ = s.Append(ctx, "a", "ra", "")
	_, _ = s.Append(ctx, "b", "rb", "")
	added, _ := s.Append(ctx, "a", "ra", "")
	require.True(t, added)
	require.Equal(t, 3, s.Len())
}

func TestAppendSameQueryDifferentResponseIsKept(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemory())

	_, _ = s.Append(ctx, "a", "r1", "")
	added, _ := s.Append(ctx, "a", "r2", "")
	require.True(t, added)
	require.Equal(t, 2, s.Len())
}

func TestAppendPersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := Open(ctx, kv)
	_, _ = s.Append(ctx, "q", "<h4>r</h4>", "#### r")

	reloaded := Open(ctx, kv)
	require.Equal(t, []Item{{Query: "q", Response: "<h4>r</h4>", Markdown: "#### r"}}, reloaded.Items())
}

func TestAppendReturnsPersistErrorButKeepsItem(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, &failingKV{setErr: errors.New("read-only")})

	added, err := s.Append(ctx, "q", "r", "")
	require.True(t, added)
	require.Error(t, err)
	require.Equal(t, 1, s.Len())
}

func TestClearPersistsEmptySequence(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := Open(ctx, kv)
	_, _ = s.Append(ctx, "q", "r", "")

	require.NoError(t, s.Clear(ctx))
	require.Equal(t, 0, s.Len())

	raw, ok, _ := kv.Get(ctx, StorageKey)
	require.True(t, ok)
	require.Equal(t, "[]", raw)
	require.Empty(t, s.Load(ctx))
}

func TestGetOutOfRange(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemory())
	_, _ = s.Append(ctx, "q", "r", "")

	for _, i := range []int{-1, 1, 99} {
		_, ok := s.Get(i)
		require.False(t, ok, "index %d", i)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemory())
	_, _ = s.Append(ctx, "q", "r", "")

	items := s.Items()
	items[0].Query = "mutated"
	head, _ := s.Get(0)
	require.Equal(t, "q", head.Query)
}

func TestLoadTruncatesOversizedData(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	raw := "["
	for i := 0; i < MaxItems+3; i++ {
		if i > 0 {
			raw += ","
		}
		raw += fmt.Sprintf(`{"query":"q%d","response":"r%d"}`, i, i)
	}
	raw += "]"
	require.NoError(t, kv.Set(ctx, StorageKey, raw))

	s := Open(ctx, kv)
	require.Equal(t, MaxItems, s.Len())
}

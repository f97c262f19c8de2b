package offline

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": newSQLiteStore(t),
		"redis":  newRedisStore(t),
	}
}

func TestStoreKeyValue(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := s.Get(ctx, "absent")
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, s.Put(ctx, "k", []byte("old")))
			require.NoError(t, s.Put(ctx, "k", []byte("new")))
			v, ok, err := s.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, []byte("new"), v)

			require.NoError(t, s.Delete(ctx, "k"))
			require.NoError(t, s.Delete(ctx, "k"))
			_, ok, err = s.Get(ctx, "k")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestStoreListsKeepInsertionOrder(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, id := range []string{"a", "b", "c"} {
				require.NoError(t, s.Append(ctx, pendingList, Item{ID: id, Payload: []byte(id + "-1")}))
			}
			require.NoError(t, s.Append(ctx, deadList, Item{ID: "z", Payload: []byte("z")}))

			require.NoError(t, s.Replace(ctx, pendingList, Item{ID: "b", Payload: []byte("b-2")}))
			require.NoError(t, s.Replace(ctx, pendingList, Item{ID: "missing", Payload: []byte("x")}))
			require.NoError(t, s.Remove(ctx, pendingList, "a"))
			require.NoError(t, s.Append(ctx, pendingList, Item{ID: "d", Payload: []byte("d-1")}))

			items, err := s.Items(ctx, pendingList)
			require.NoError(t, err)
			require.Equal(t, []Item{
				{ID: "b", Payload: []byte("b-2")},
				{ID: "c", Payload: []byte("c-1")},
				{ID: "d", Payload: []byte("d-1")},
			}, items)

			dead, err := s.Items(ctx, deadList)
			require.NoError(t, err)
			require.Len(t, dead, 1)
		})
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := t.TempDir() + "/agent.db"
	ctx := context.Background()

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, pendingList, Item{ID: "a", Payload: []byte("{}")}))
	require.NoError(t, s.Put(ctx, "draft:visit_new", []byte(`{"siteName":"Plant"}`)))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	items, err := s.Items(ctx, pendingList)
	require.NoError(t, err)
	require.Len(t, items, 1)
	_, ok, err := s.Get(ctx, "draft:visit_new")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDraftStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := NewDraftStore(NewMemoryStore())

	var got VisitInput
	found, err := d.Load(ctx, "visit_new", &got)
	require.NoError(t, err)
	require.False(t, found)

	want := VisitInput{SiteName: "Plant 7", Address: "1 Main", Verticals: []string{"All Sites"}, TechUserID: "tech-demo"}
	require.NoError(t, d.Save(ctx, "visit_new", want))
	found, err = d.Load(ctx, "visit_new", &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, want, got)

	require.NoError(t, d.Clear(ctx, "visit_new"))
	found, err = d.Load(ctx, "visit_new", &got)
	require.NoError(t, err)
	require.False(t, found)
}

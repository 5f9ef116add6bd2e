package catalog_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Totem/internal/catalog"
)

func newFileStore(t *testing.T) (*catalog.FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "produtos.json")
	s, err := catalog.NewFileStore(path)
	require.NoError(t, err)
	return s, path
}

func ptr[T any](v T) *T { return &v }

func TestFileStore_ListMissingFileIsEmpty(t *testing.T) {
	s, _ := newFileStore(t)

	got, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFileStore_ListIsIdempotent(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, catalog.Draft{Name: "X-Burger", CategoryID: "lanche", Price: 15})
	require.NoError(t, err)

	a, err := s.List(ctx)
	require.NoError(t, err)
	b, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFileStore_CreateAssignsIDsAndDefaults(t *testing.T) {
	s, path := newFileStore(t)
	ctx := context.Background()

	p1, err := s.Create(ctx, catalog.Draft{Name: "X-Burger", CategoryID: "lanche", Price: 15, ImageURL: "x.png"})
	require.NoError(t, err)
	assert.Equal(t, catalog.Product{ID: 1, Name: "X-Burger", CategoryID: "lanche", Price: 15, ImageURL: "x.png", Available: true}, p1)

	p2, err := s.Create(ctx, catalog.Draft{Name: "Cola", CategoryID: "bebida", Available: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), p2.ID)
	assert.False(t, p2.Available)
	assert.Zero(t, p2.Price)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id":1,"name":"X-Burger","categoryId":"lanche","price":15,"imageUrl":"x.png","available":true},
		{"id":2,"name":"Cola","categoryId":"bebida","price":0,"imageUrl":"","available":false}
	]`, string(raw))
}

func TestFileStore_CreateAfterGapUsesMaxPlusOne(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, catalog.Draft{ID: 10, Name: "Batata"})
	require.NoError(t, err)

	p, err := s.Create(ctx, catalog.Draft{Name: "Sorvete"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), p.ID)
}

func TestFileStore_CreateRejectsDuplicateSuppliedID(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, catalog.Draft{ID: 3, Name: "A"})
	require.NoError(t, err)

	_, err = s.Create(ctx, catalog.Draft{ID: 3, Name: "B"})
	require.ErrorIs(t, err, catalog.ErrDuplicateID)

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFileStore_CreateRejectsIDsBeyondMax(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, catalog.Draft{ID: math.MaxInt64, Name: "A"})
	require.ErrorIs(t, err, catalog.ErrInvalidRecord)

	top, err := s.Create(ctx, catalog.Draft{ID: catalog.MaxID, Name: "B"})
	require.NoError(t, err)
	assert.Equal(t, catalog.MaxID, top.ID)

	for i := 0; i < 2; i++ {
		_, err = s.Create(ctx, catalog.Draft{Name: "C"})
		require.ErrorIs(t, err, catalog.ErrInvalidRecord)
	}

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFileStore_CreateRefusesToWrapExistingMaxID(t *testing.T) {
	s, path := newFileStore(t)
	ctx := context.Background()

	doc := []byte(`[{"id":9223372036854775807,"name":"Legado","categoryId":"","price":1,"imageUrl":"","available":true}]`)
	require.NoError(t, os.WriteFile(path, doc, 0o644))

	_, err := s.Create(ctx, catalog.Draft{Name: "Novo"})
	require.ErrorIs(t, err, catalog.ErrInvalidRecord)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc, raw)
}

func TestFileStore_ListWithCancelledContextIsUnavailable(t *testing.T) {
	s, _ := newFileStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.List(ctx)
	require.ErrorIs(t, err, catalog.ErrStorageUnavailable)
}

func TestFileStore_CreateRejectsBlankName(t *testing.T) {
	s, path := newFileStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, catalog.Draft{Name: "Cola", Price: 7})
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := s.Create(ctx, catalog.Draft{Name: name, Price: 5})
		require.ErrorIs(t, err, catalog.ErrInvalidRecord, "name %q", name)
	}

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileStore_ConcurrentCreatesGetDistinctSequentialIDs(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()

	const n = 64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, catalog.Draft{Name: "item"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, n)

	ids := make([]int, 0, n)
	for _, p := range got {
		ids = append(ids, int(p.ID))
	}
	sort.Ints(ids)
	for i, id := range ids {
		assert.Equal(t, i+1, id)
	}
}

func TestFileStore_ConcurrentCreatesAcrossStoreInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "produtos.json")
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			s, err := catalog.NewFileStore(path)
			if !assert.NoError(t, err) {
				return
			}
			_, err = s.Create(ctx, catalog.Draft{Name: "item"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := catalog.NewFileStore(path)
	require.NoError(t, err)
	got, err := s.List(ctx)
	require.NoError(t, err)

	seen := map[int64]bool{}
	for _, p := range got {
		assert.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true
	}
	assert.Len(t, seen, n)
}

func TestFileStore_UpdatePreservesUnspecifiedFields(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, catalog.Draft{Name: "A", Price: 10})
	require.NoError(t, err)

	got, found, err := s.Update(ctx, 1, catalog.Patch{Price: ptr(12.0)})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, catalog.Product{ID: 1, Name: "A", Price: 12, Available: true}, got)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Product{got}, list)
}

func TestFileStore_UpdateKeepsPosition(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()
	for _, n := range []string{"A", "B", "C"} {
		_, err := s.Create(ctx, catalog.Draft{Name: n})
		require.NoError(t, err)
	}

	_, found, err := s.Update(ctx, 2, catalog.Patch{Name: ptr("B2"), CategoryID: ptr("bebida"), Available: ptr(false)})
	require.NoError(t, err)
	require.True(t, found)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, catalog.Product{ID: 2, Name: "B2", CategoryID: "bebida", Available: false}, list[1])
}

func TestFileStore_UpdateRejectsBlankName(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, catalog.Draft{Name: "A"})
	require.NoError(t, err)

	_, _, err = s.Update(ctx, 1, catalog.Patch{Name: ptr(" ")})
	require.ErrorIs(t, err, catalog.ErrInvalidRecord)
}

func TestFileStore_ToggleRoundTrip(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, catalog.Draft{Name: "A"})
	require.NoError(t, err)

	once, found, err := s.ToggleAvailability(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, once.Available)

	twice, found, err := s.ToggleAvailability(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, twice.Available)
}

func TestFileStore_NotFoundLeavesDocumentUntouched(t *testing.T) {
	s, path := newFileStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, catalog.Draft{Name: "A"})
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, found, err := s.Update(ctx, 999, catalog.Patch{Price: ptr(1.0)})
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = s.ToggleAvailability(ctx, 999)
	require.NoError(t, err)
	assert.False(t, found)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileStore_CorruptDocument(t *testing.T) {
	s, path := newFileStore(t)
	ctx := context.Background()
	corrupt := []byte(`[{"id":1,"name":"A"`)
	require.NoError(t, os.WriteFile(path, corrupt, 0o644))

	_, err := s.List(ctx)
	require.ErrorIs(t, err, catalog.ErrCorruptStore)

	_, err = s.Create(ctx, catalog.Draft{Name: "B"})
	require.ErrorIs(t, err, catalog.ErrCorruptStore)

	_, _, err = s.Update(ctx, 1, catalog.Patch{Price: ptr(2.0)})
	require.ErrorIs(t, err, catalog.ErrCorruptStore)

	_, _, err = s.ToggleAvailability(ctx, 1)
	require.ErrorIs(t, err, catalog.ErrCorruptStore)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, corrupt, raw)
}

func TestFileStore_NonArrayDocumentIsCorrupt(t *testing.T) {
	s, path := newFileStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"id":1}`), 0o644))

	_, err := s.List(context.Background())
	require.ErrorIs(t, err, catalog.ErrCorruptStore)
}

func TestFileStore_StrayTempFileIsIgnored(t *testing.T) {
	s, path := newFileStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, catalog.Draft{Name: "A"})
	require.NoError(t, err)

	// What an interrupted write leaves behind: a truncated temp file next to
	// the intact document.
	stray := filepath.Join(filepath.Dir(path), ".produtos.json.123.tmp")
	require.NoError(t, os.WriteFile(stray, []byte(`[{"id":1,"na`), 0o644))

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Product{{ID: 1, Name: "A", Available: true}}, got)

	_, err = s.Create(ctx, catalog.Draft{Name: "B"})
	require.NoError(t, err)
	got, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFileStore_UnwritableLocationIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s, err := catalog.NewFileStore(filepath.Join(blocker, "produtos.json"))
	require.NoError(t, err)

	_, err = s.Create(context.Background(), catalog.Draft{Name: "A"})
	require.ErrorIs(t, err, catalog.ErrStorageUnavailable)

	require.ErrorIs(t, s.Ping(context.Background()), catalog.ErrStorageUnavailable)
}

package carriers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linesalex/netinv/internal/audit"
	"github.com/linesalex/netinv/internal/shared"
)

type memoryCarrierRepo struct {
	carriers map[int64]Carrier
	nextID   int64
}

func newMemoryCarrierRepo() *memoryCarrierRepo {
	return &memoryCarrierRepo{carriers: make(map[int64]Carrier)}
}

func (r *memoryCarrierRepo) List(ctx context.Context, filters ListFilters) ([]Carrier, int, error) {
	out := make([]Carrier, 0, len(r.carriers))
	for _, c := range r.carriers {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *memoryCarrierRepo) Get(ctx context.Context, id int64) (Carrier, error) {
	c, ok := r.carriers[id]
	if !ok {
		return Carrier{}, shared.ErrNotFound
	}
	return c, nil
}

func (r *memoryCarrierRepo) Create(ctx context.Context, carrier Carrier) (Carrier, error) {
	r.nextID++
	carrier.ID = r.nextID
	r.carriers[carrier.ID] = carrier
	return carrier, nil
}

func (r *memoryCarrierRepo) Update(ctx context.Context, id int64, carrier Carrier) (Carrier, error) {
	if _, ok := r.carriers[id]; !ok {
		return Carrier{}, shared.ErrNotFound
	}
	carrier.ID = id
	r.carriers[id] = carrier
	return carrier, nil
}

func (r *memoryCarrierRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.carriers[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.carriers, id)
	return nil
}

type captureStore struct {
	entries []audit.Entry
}

func (s *captureStore) Insert(ctx context.Context, entry audit.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func newCarrierFixture() (*Service, *memoryCarrierRepo, *captureStore) {
	repo := newMemoryCarrierRepo()
	store := &captureStore{}
	return NewService(repo, audit.NewRecorder(store, nil)), repo, store
}

func TestCarrierLifecycleIsAudited(t *testing.T) {
	svc, repo, store := newCarrierFixture()
	ctx := context.Background()
	origin := audit.Origin{IP: "10.2.2.2", UserAgent: "ui/2.0"}

	created, err := svc.Create(ctx, 4, origin, Carrier{Name: "Acme", Region: "EU", Status: "active"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, 4, origin, created.ID, Carrier{Name: "Acme Networks", Region: "EU", Status: "active"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 4, origin, created.ID))
	require.NotContains(t, repo.carriers, created.ID)

	require.Len(t, store.entries, 3)

	require.Equal(t, "CREATE", store.entries[0].Action)
	require.Empty(t, store.entries[0].OldValues)

	require.Equal(t, "UPDATE", store.entries[1].Action)
	require.Contains(t, store.entries[1].Summary, "name: Acme → Acme Networks")

	require.Equal(t, "DELETE", store.entries[2].Action)
	require.Empty(t, store.entries[2].NewValues)
	require.Equal(t, "DELETE operation", store.entries[2].Summary)

	for _, entry := range store.entries {
		require.EqualValues(t, 4, entry.ActorID)
		require.Equal(t, "carriers", entry.TableName)
		require.Equal(t, "10.2.2.2", entry.IP)
	}
}

func TestCarrierValidation(t *testing.T) {
	svc, _, store := newCarrierFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, 4, audit.Origin{}, Carrier{Name: "   "})
	require.Error(t, err)

	_, err = svc.Get(ctx, 0)
	require.Error(t, err)

	err = svc.Delete(ctx, 4, audit.Origin{}, 99)
	require.ErrorIs(t, err, shared.ErrNotFound)

	require.Empty(t, store.entries, "rejected operations must not be audited")
}

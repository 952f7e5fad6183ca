package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-gateway/internal/registry"
	dErrors "loyalty-gateway/pkg/domain-errors"
)

// fakeRegistry simulates a paged registry customer list and records calls.
type fakeRegistry struct {
	mu sync.Mutex

	pages       [][]registry.Customer
	listErr     error
	createRefs  []registry.CustomerRef
	createErr   error
	fetched     map[string]*registry.Customer
	listGate    chan struct{} // when set, ListCustomers blocks until closed

	listCalls   int
	createCalls int
	getCalls    int
}

func (f *fakeRegistry) ListCustomers(ctx context.Context, page, size int, includeDeleted bool) (*registry.SearchPage, error) {
	if f.listGate != nil {
		<-f.listGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if page < 1 || page > len(f.pages) {
		return &registry.SearchPage{CurrentPage: page, PagesTotal: len(f.pages)}, nil
	}
	return &registry.SearchPage{
		CurrentPage: page,
		PagesTotal:  len(f.pages),
		Results:     f.pages[page-1],
	}, nil
}

func (f *fakeRegistry) CreateCustomers(ctx context.Context, batch []registry.CustomerPayload) ([]registry.CustomerRef, json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, nil, f.createErr
	}
	return f.createRefs, nil, nil
}

func (f *fakeRegistry) GetCustomer(ctx context.Context, customerID string) (*registry.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if c, ok := f.fetched[customerID]; ok {
		return c, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
}

func TestResolve_ShortPhoneIsInvalidWithoutOutboundCalls(t *testing.T) {
	tests := []string{"", "5551234"}
	for _, phone := range tests {
		t.Run("phone "+phone, func(t *testing.T) {
			reg := &fakeRegistry{}
			svc := New(reg)

			_, err := svc.Resolve(context.Background(), phone)

			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			assert.Zero(t, reg.listCalls)
			assert.Zero(t, reg.createCalls)
		})
	}
}

func TestResolve_StopsPagingOnMatch(t *testing.T) {
	// Match sits on page 3 of 5; pages 4 and 5 must never be fetched.
	reg := &fakeRegistry{
		pages: [][]registry.Customer{
			{{ID: "a", Phone: "1112223333"}},
			{{ID: "b", Phone: "2223334444"}},
			{{ID: "c", Phone: "5551234567"}},
			{{ID: "d", Phone: "4445556666"}},
			{{ID: "e", Phone: "6667778888"}},
		},
	}
	svc := New(reg)

	res, err := svc.Resolve(context.Background(), "5551234567")
	require.NoError(t, err)

	assert.False(t, res.IsNew)
	assert.Equal(t, "c", res.Customer.ID)
	assert.Equal(t, 3, reg.listCalls)
	assert.Zero(t, reg.createCalls)
}

func TestResolve_MatchesCandidateVariant(t *testing.T) {
	// Stored form carries the +1 prefix; kiosk input is the bare 10 digits.
	reg := &fakeRegistry{
		pages: [][]registry.Customer{
			{{ID: "c1", Phone: "+15551234567"}},
		},
	}
	svc := New(reg)

	res, err := svc.Resolve(context.Background(), "5551234567")
	require.NoError(t, err)
	assert.Equal(t, "c1", res.Customer.ID)
	assert.False(t, res.IsNew)
}

func TestResolve_MissCreatesOnceAndRefetches(t *testing.T) {
	reg := &fakeRegistry{
		pages: [][]registry.Customer{
			{{ID: "a", Phone: "1112223333"}},
			{{ID: "b", Phone: "2223334444"}},
		},
		createRefs: []registry.CustomerRef{{ID: "c-new"}},
		fetched: map[string]*registry.Customer{
			"c-new": {ID: "c-new", Phone: "5551234567"},
		},
	}
	svc := New(reg)

	res, err := svc.Resolve(context.Background(), "5551234567")
	require.NoError(t, err)

	assert.True(t, res.IsNew)
	assert.Equal(t, "c-new", res.Customer.ID)
	assert.Equal(t, 2, reg.listCalls)
	assert.Equal(t, 1, reg.createCalls)
	assert.Equal(t, 1, reg.getCalls)
}

func TestResolve_EmptyCreateResponseIsUpstreamError(t *testing.T) {
	reg := &fakeRegistry{
		pages:      [][]registry.Customer{{}},
		createRefs: nil,
	}
	svc := New(reg)

	_, err := svc.Resolve(context.Background(), "5551234567")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstream))
	assert.Zero(t, reg.getCalls)
}

func TestResolve_RefetchFailureIsTerminal(t *testing.T) {
	reg := &fakeRegistry{
		pages:      [][]registry.Customer{{}},
		createRefs: []registry.CustomerRef{{ID: "c-new"}},
		fetched:    nil, // re-fetch misses
	}
	svc := New(reg)

	_, err := svc.Resolve(context.Background(), "5551234567")
	require.Error(t, err)
	assert.Equal(t, 1, reg.createCalls)
}

func TestResolve_ConcurrentIdenticalSubmissionsCreateOnce(t *testing.T) {
	gate := make(chan struct{})
	reg := &fakeRegistry{
		pages:      [][]registry.Customer{{}},
		createRefs: []registry.CustomerRef{{ID: "c-new"}},
		fetched: map[string]*registry.Customer{
			"c-new": {ID: "c-new", Phone: "5551234567"},
		},
		listGate: gate,
	}
	svc := New(reg)

	var wg sync.WaitGroup
	results := make([]*Resolution, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Resolve(context.Background(), "5551234567")
			require.NoError(t, err)
			results[i] = res
		}(i)
	}

	// Let both submissions join the in-flight resolution before the
	// registry answers.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, 1, reg.createCalls)
	assert.Equal(t, results[0].Customer.ID, results[1].Customer.ID)
}

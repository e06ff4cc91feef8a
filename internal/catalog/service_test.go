package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu       sync.Mutex
	products map[int64]*Product
}

func newMemoryRepo(products ...Product) *memoryRepo {
	repo := &memoryRepo{products: make(map[int64]*Product)}
	for i := range products {
		p := products[i]
		repo.products[p.ID] = &p
	}
	return repo
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		return *p, nil
	}
	return Product{}, ErrProductNotFound
}

func (r *memoryRepo) GetByName(ctx context.Context, name string) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Name == name {
			return *p, nil
		}
	}
	return Product{}, ErrProductNotFound
}

func (r *memoryRepo) GetByClassIndex(ctx context.Context, classIndex int) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.ClassIndex == classIndex {
			return *p, nil
		}
	}
	return Product{}, ErrProductNotFound
}

func (r *memoryRepo) List(ctx context.Context) ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, nil
}

func (r *memoryRepo) Overwrite(ctx context.Context, id, stock, price int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return ErrProductNotFound
	}
	p.Stock = stock
	p.Price = price
	return nil
}

func (r *memoryRepo) DecrementIfAvailable(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Name == name {
			if p.Stock > 0 {
				p.Stock--
				return true, nil
			}
			return false, nil
		}
	}
	return false, nil
}

func TestUpdateStockValidation(t *testing.T) {
	repo := newMemoryRepo(Product{ID: 1, Name: "Indomie", Price: 3500, Stock: 100, ClassIndex: 1})
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	err := svc.UpdateStock(ctx, UpdateStockInput{ProductID: 1, Stock: -1, Price: 3500})
	require.ErrorIs(t, err, ErrInvalidStock)

	err = svc.UpdateStock(ctx, UpdateStockInput{ProductID: 1, Stock: 10, Price: -1})
	require.ErrorIs(t, err, ErrInvalidPrice)

	err = svc.UpdateStock(ctx, UpdateStockInput{ProductID: 99, Stock: 10, Price: 3500})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestUpdateStockIdempotent(t *testing.T) {
	repo := newMemoryRepo(Product{ID: 1, Name: "Indomie", Price: 3500, Stock: 100, ClassIndex: 1})
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.UpdateStock(ctx, UpdateStockInput{ProductID: 1, Stock: 42, Price: 4000}))
	}

	p, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 42, p.Stock)
	require.EqualValues(t, 4000, p.Price)
}

func TestDecrementEachSkipsMissingAndEmpty(t *testing.T) {
	repo := newMemoryRepo(
		Product{ID: 1, Name: "Indomie", Price: 3500, Stock: 2, ClassIndex: 1},
		Product{ID: 2, Name: "Zinc", Price: 18000, Stock: 0, ClassIndex: 3},
	)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	applied := svc.DecrementEach(ctx, []string{"Indomie", "Tidak Ada", "Zinc", "Indomie"})
	require.Equal(t, 2, applied)

	p, _ := repo.Get(ctx, 1)
	require.EqualValues(t, 0, p.Stock)
	z, _ := repo.Get(ctx, 2)
	require.EqualValues(t, 0, z.Stock)
}

func TestDecrementNeverBelowZeroUnderConcurrency(t *testing.T) {
	repo := newMemoryRepo(Product{ID: 1, Name: "Teh Botol", Price: 5000, Stock: 5, ClassIndex: 2})
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := svc.DecrementEach(ctx, []string{"Teh Botol"})
			mu.Lock()
			applied += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 5, applied)
	p, _ := repo.Get(ctx, 1)
	require.EqualValues(t, 0, p.Stock)
}

package pricing

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/precios-api/internal/domain"
	"github.com/jhoicas/precios-api/internal/domain/entity"
	"github.com/jhoicas/precios-api/internal/domain/repository"
)

// memStore es el estado compartido de los repositorios en memoria.
// El fakeTxRunner lo clona antes de ejecutar fn y lo restaura si fn falla,
// emulando el rollback transaccional del motor real.
type memStore struct {
	products    map[string]*entity.Product
	adjustments map[string]*entity.Adjustment
}

func newMemStore() *memStore {
	return &memStore{
		products:    make(map[string]*entity.Product),
		adjustments: make(map[string]*entity.Adjustment),
	}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for id, p := range s.products {
		cp := *p
		c.products[id] = &cp
	}
	for id, a := range s.adjustments {
		ca := *a
		ca.Snapshots = append([]entity.PriceSnapshot(nil), a.Snapshots...)
		c.adjustments[id] = &ca
	}
	return c
}

func (s *memStore) restore(from *memStore) {
	s.products = from.products
	s.adjustments = from.adjustments
}

// memProductRepo implementa repository.ProductRepository sobre memStore.
type memProductRepo struct {
	store *memStore

	// inyección de fallos: UpdatePrices sobre este ID retorna failErr
	failUpdateID string
	failErr      error

	// onGetForUpdate emula una transacción concurrente que confirma justo
	// antes de que este lote obtenga el lock de la fila. Se dispara una vez.
	onGetForUpdate func(id string)
}

var _ repository.ProductRepository = (*memProductRepo)(nil)

func (r *memProductRepo) Create(p *entity.Product) error {
	cp := *p
	r.store.products[p.ID] = &cp
	return nil
}

func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	p, ok := r.store.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memProductRepo) GetForUpdate(id string) (*entity.Product, error) {
	if r.onGetForUpdate != nil {
		hook := r.onGetForUpdate
		r.onGetForUpdate = nil
		hook(id)
	}
	return r.GetByID(id)
}

func (r *memProductRepo) UpdatePrices(productID string, prices entity.PriceSet, updatedAt time.Time) error {
	if r.failUpdateID == productID && r.failErr != nil {
		return r.failErr
	}
	p, ok := r.store.products[productID]
	if !ok {
		return nil
	}
	p.SetPrices(prices)
	p.UpdatedAt = updatedAt
	return nil
}

func (r *memProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	ids := make([]string, 0, len(r.store.products))
	for id := range r.store.products {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*entity.Product, 0, len(ids))
	for _, id := range ids {
		cp := *r.store.products[id]
		out = append(out, &cp)
	}
	return out, nil
}

// memAdjustmentRepo implementa repository.AdjustmentRepository sobre memStore,
// incluido el chequeo optimista de versión del repositorio real.
type memAdjustmentRepo struct {
	store *memStore
}

var _ repository.AdjustmentRepository = (*memAdjustmentRepo)(nil)

func (r *memAdjustmentRepo) Create(a *entity.Adjustment) error {
	ca := *a
	ca.Snapshots = append([]entity.PriceSnapshot(nil), a.Snapshots...)
	r.store.adjustments[a.ID] = &ca
	return nil
}

func (r *memAdjustmentRepo) GetByID(id string) (*entity.Adjustment, error) {
	a, ok := r.store.adjustments[id]
	if !ok {
		return nil, nil
	}
	ca := *a
	ca.Snapshots = append([]entity.PriceSnapshot(nil), a.Snapshots...)
	return &ca, nil
}

func (r *memAdjustmentRepo) Update(a *entity.Adjustment) error {
	stored, ok := r.store.adjustments[a.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != a.Version {
		return domain.ErrConcurrency
	}
	ca := *a
	ca.Version++
	ca.Snapshots = append([]entity.PriceSnapshot(nil), a.Snapshots...)
	r.store.adjustments[a.ID] = &ca
	a.Version++
	return nil
}

func (r *memAdjustmentRepo) ListAll(limit, offset int) ([]*entity.Adjustment, error) {
	all := make([]*entity.Adjustment, 0, len(r.store.adjustments))
	for _, a := range r.store.adjustments {
		ca := *a
		all = append(all, &ca)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].AppliedAt.After(all[j].AppliedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memAdjustmentRepo) ListByState(state string) ([]*entity.Adjustment, error) {
	var out []*entity.Adjustment
	for _, a := range r.store.adjustments {
		if a.IsTemporal && a.State == state {
			ca := *a
			out = append(out, &ca)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memAdjustmentRepo) DueForActivation(now time.Time) ([]*entity.Adjustment, error) {
	var out []*entity.Adjustment
	for _, a := range r.store.adjustments {
		if a.IsTemporal && a.State == entity.TemporalStateScheduled && a.ValidFrom != nil && !a.ValidFrom.After(now) {
			ca := *a
			out = append(out, &ca)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memAdjustmentRepo) DueForFinalization(now time.Time) ([]*entity.Adjustment, error) {
	var out []*entity.Adjustment
	for _, a := range r.store.adjustments {
		if a.IsTemporal && a.State == entity.TemporalStateActive && a.ValidTo != nil && !a.ValidTo.After(now) {
			ca := *a
			out = append(out, &ca)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memAdjustmentRepo) OpenTemporalProductIDs(productIDs []string) ([]string, error) {
	wanted := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}
	busy := make(map[string]struct{})
	for _, a := range r.store.adjustments {
		if !a.IsTemporal {
			continue
		}
		if a.State != entity.TemporalStateScheduled && a.State != entity.TemporalStateActive {
			continue
		}
		for _, s := range a.Snapshots {
			if _, ok := wanted[s.ProductID]; ok {
				busy[s.ProductID] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(busy))
	for id := range busy {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// memAuditRepo implementa repository.AuditRepository en memoria.
type memAuditRepo struct {
	entries []*entity.AuditEntry
	failErr error
}

var _ repository.AuditRepository = (*memAuditRepo)(nil)

func (r *memAuditRepo) Create(e *entity.AuditEntry) error {
	if r.failErr != nil {
		return r.failErr
	}
	ce := *e
	r.entries = append(r.entries, &ce)
	return nil
}

func (r *memAuditRepo) List(limit, offset int) ([]*entity.AuditEntry, error) {
	return r.entries, nil
}

// fakeTxRunner ejecuta fn contra el memStore y restaura el estado previo si
// fn retorna error, emulando el rollback del TxRunner de PostgreSQL.
type fakeTxRunner struct {
	store    *memStore
	products *memProductRepo
}

var _ TxRunner = (*fakeTxRunner)(nil)

func (tx *fakeTxRunner) Run(ctx context.Context, fn func(
	products repository.ProductRepository,
	adjustments repository.AdjustmentRepository,
) error) error {
	backup := tx.store.clone()
	err := fn(tx.products, &memAdjustmentRepo{store: tx.store})
	if err != nil {
		tx.store.restore(backup)
		return err
	}
	return nil
}

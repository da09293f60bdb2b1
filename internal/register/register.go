package register

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/openpos/register/internal/cache"
	"github.com/openpos/register/internal/domain"
	"github.com/openpos/register/internal/store"
)

var ErrMissingProductID = errors.New("line item has no product id")

// Register owns the in-memory cart of one point-of-sale terminal. All
// mutations run to completion on the caller's goroutine and write a full
// snapshot through the store before returning; reads derive totals from
// the current state on every call.
//
// The items slice keeps insertion order; the index map enforces the
// one-row-per-product invariant structurally.
type Register struct {
	id    string
	store store.SnapshotStore
	cache cache.SnapshotCache
	log   *zap.Logger
	sfg   singleflight.Group // Prevents reload stampede

	mu    sync.RWMutex
	cart  *domain.Cart
	index map[string]int // productID -> position in cart.Items
}

// New returns a register with an empty cart. Nothing is persisted until
// the first mutation.
func New(id string, st store.SnapshotStore, c cache.SnapshotCache, log *zap.Logger) *Register {
	r := &Register{
		id:    id,
		store: st,
		cache: c,
		log:   log,
	}
	r.reset()
	return r
}

// Open rehydrates a register from its durable snapshot. A missing snapshot
// yields an empty register and no error; a snapshot that exists but cannot
// be read or decoded returns the error so the caller can distinguish "new
// register" from "persistence failed" before electing to fail open.
func Open(ctx context.Context, id string, st store.SnapshotStore, c cache.SnapshotCache, log *zap.Logger) (*Register, error) {
	r := New(id, st, c, log)

	cart, err := st.Load(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrSnapshotNotFound) {
			return r, nil
		}
		return nil, fmt.Errorf("open register %q: %w", id, err)
	}

	r.adopt(cart)
	return r, nil
}

func (r *Register) ID() string {
	return r.id
}

// AddItem merges the item into the cart. If a row with the same product id
// already exists its quantity is incremented and every other field is left
// untouched; otherwise the item is appended with the given quantity.
// Quantities below 1 default to 1.
func (r *Register) AddItem(ctx context.Context, item domain.LineItem, quantity int) error {
	if item.ProductID == "" {
		return ErrMissingProductID
	}
	if quantity < 1 {
		quantity = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.index[item.ProductID]; ok {
		r.cart.Items[i].Quantity += quantity
	} else {
		item.Quantity = quantity
		r.index[item.ProductID] = len(r.cart.Items)
		r.cart.Items = append(r.cart.Items, item)
	}

	return r.persistLocked(ctx)
}

// RemoveItem drops the row for the product. Removing an absent product is
// a no-op.
func (r *Register) RemoveItem(ctx context.Context, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.removeLocked(productID) {
		return nil
	}
	return r.persistLocked(ctx)
}

// UpdateQuantity replaces the row's quantity in place. A quantity of zero
// or less removes the row instead.
func (r *Register) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[productID]
	if !ok {
		return nil
	}

	if quantity <= 0 {
		r.removeLocked(productID)
	} else {
		r.cart.Items[i].Quantity = quantity
	}
	return r.persistLocked(ctx)
}

// UpdateItemPrice sets the row's unit price. The price the item first
// entered the cart at is captured into OriginalPrice on the first edit and
// never clobbered by later edits.
func (r *Register) UpdateItemPrice(ctx context.Context, productID string, price decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[productID]
	if !ok {
		return nil
	}

	li := &r.cart.Items[i]
	if li.OriginalPrice == nil {
		original := li.UnitPrice
		li.OriginalPrice = &original
	}
	li.UnitPrice = price

	return r.persistLocked(ctx)
}

// SetCustomer replaces the attached customer. Nil detaches.
func (r *Register) SetCustomer(ctx context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cart.Customer = customer
	return r.persistLocked(ctx)
}

// SetDiscount replaces the cart-wide discount wholesale; the cart holds
// zero or one discount, never a combination. A discount with an unknown
// kind is rejected with domain.ErrUnknownDiscountKind.
func (r *Register) SetDiscount(ctx context.Context, discount *domain.Discount) error {
	if discount != nil {
		if err := discount.Validate(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.cart.Discount = discount
	return r.persistLocked(ctx)
}

// SetNotes replaces the free-form sale notes.
func (r *Register) SetNotes(ctx context.Context, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cart.Notes = notes
	return r.persistLocked(ctx)
}

// SetHoldID tags or untags the cart as held. The tag is advisory metadata,
// not a lock; a held cart can still be mutated.
func (r *Register) SetHoldID(ctx context.Context, holdID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cart.HoldID = holdID
	return r.persistLocked(ctx)
}

// Clear resets every field to its empty default and persists the empty
// state. Used when a sale is finalized or explicitly discarded.
func (r *Register) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reset()
	return r.persistLocked(ctx)
}

// LoadFromHold replaces items, customer, notes and hold tag wholesale and
// resets the discount: a resumed cart never carries a prior discount over,
// the cashier has to reapply it.
func (r *Register) LoadFromHold(ctx context.Context, items []domain.LineItem, customer *domain.Customer, notes string, holdID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := domain.NewCart()
	cart.Items = append(cart.Items, items...)
	cart.Customer = customer
	cart.Notes = notes
	cart.HoldID = holdID

	r.adoptLocked(cart)
	return r.persistLocked(ctx)
}

// Reload rehydrates the in-memory cart from cache or store, for when the
// durable snapshot changed out-of-band (e.g. a finalized sale cleared it
// from another process). Concurrent reloads are collapsed into one fetch.
func (r *Register) Reload(ctx context.Context) error {
	v, err, _ := r.sfg.Do(r.id, func() (interface{}, error) {
		cart, err := r.cache.Get(ctx, r.id)
		if err == nil {
			return cart, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			r.log.Warn("cache get failed, falling back to store", zap.Error(err))
		}

		cart, errLoad := r.store.Load(ctx, r.id)
		if errLoad != nil {
			if errors.Is(errLoad, store.ErrSnapshotNotFound) {
				return domain.NewCart(), nil
			}
			return nil, errLoad
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := r.cache.Set(ctx, r.id, cart); errSet != nil {
				r.log.Warn("cache set failed", zap.Error(errSet))
			}
		}()

		return cart, nil
	})
	if err != nil {
		return fmt.Errorf("reload register %q: %w", r.id, err)
	}

	r.adopt(v.(*domain.Cart))
	return nil
}

// Snapshot returns a deep copy of the current cart.
func (r *Register) Snapshot() *domain.Cart {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.cart.Clone()
}

// Totals is the derived pricing read surface, computed fresh per call.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
	ItemCount      int             `json:"item_count"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
}

// Totals derives all monetary totals for the caller-supplied tax rate.
// Which rate applies is the caller's concern; the register has no notion
// of tax jurisdictions.
func (r *Register) Totals(taxRate decimal.Decimal) Totals {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Totals{
		Subtotal:       r.cart.Subtotal(),
		DiscountAmount: r.cart.DiscountAmount(),
		TaxAmount:      r.cart.TaxAmount(taxRate),
		Total:          r.cart.Total(taxRate),
		ItemCount:      r.cart.ItemCount(),
		TaxRate:        taxRate,
	}
}

// removeLocked splices the row out and reindexes the rows behind it.
// Reports whether anything was removed.
func (r *Register) removeLocked(productID string) bool {
	i, ok := r.index[productID]
	if !ok {
		return false
	}

	r.cart.Items = append(r.cart.Items[:i], r.cart.Items[i+1:]...)
	delete(r.index, productID)
	for j := i; j < len(r.cart.Items); j++ {
		r.index[r.cart.Items[j].ProductID] = j
	}
	return true
}

// persistLocked writes the full snapshot through the store and invalidates
// the cache. Must be called with the write lock held. The in-memory state
// keeps the mutation even when the write fails; the error tells the caller
// durability is not guaranteed.
func (r *Register) persistLocked(ctx context.Context) error {
	if err := r.store.Save(ctx, r.id, r.cart.Clone()); err != nil {
		r.log.Error("snapshot write failed", zap.String("register_id", r.id), zap.Error(err))
		return fmt.Errorf("persist register %q: %w", r.id, err)
	}

	go r.invalidateCache()
	return nil
}

func (r *Register) invalidateCache() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.cache.Delete(ctx, r.id); err != nil {
		r.log.Warn("cache invalidate failed", zap.String("register_id", r.id), zap.Error(err))
	}
}

func (r *Register) adopt(cart *domain.Cart) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adoptLocked(cart)
}

func (r *Register) adoptLocked(cart *domain.Cart) {
	if cart.Items == nil {
		cart.Items = []domain.LineItem{}
	}
	r.cart = cart
	r.index = make(map[string]int, len(cart.Items))
	for i, li := range cart.Items {
		r.index[li.ProductID] = i
	}
}

func (r *Register) reset() {
	r.cart = domain.NewCart()
	r.index = make(map[string]int)
}

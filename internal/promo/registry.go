// Package promo holds the promo code catalog and the rules for applying a
// code to a shopper's session.
package promo

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aq2208/storefront-checkout/internal/entity"
)

var (
	ErrNotFound          = errors.New("promo code not found")
	ErrUsageLimitReached = errors.New("promo code usage limit reached")
	ErrDuplicateCode     = errors.New("duplicate promo code")
	ErrInvalidDefinition = errors.New("invalid promo definition")
)

// ExpiryLayout is the date-only form promo expiry dates are written in.
// Dates parse as midnight UTC.
const ExpiryLayout = "2006-01-02"

type Option func(*Registry)

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// Registry is the set of known promos keyed by upper-cased code. It is safe
// for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	promos map[string]*entity.Promo
	now    func() time.Time
}

func NewRegistry(promos []entity.Promo, opts ...Option) (*Registry, error) {
	r := &Registry{
		promos: make(map[string]*entity.Promo, len(promos)),
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	for i := range promos {
		p := promos[i]
		if err := validate(p); err != nil {
			return nil, err
		}
		key := normalize(p.Code)
		if _, dup := r.promos[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, p.Code)
		}
		r.promos[key] = &p
	}
	return r, nil
}

func validate(p entity.Promo) error {
	switch {
	case strings.TrimSpace(p.Code) == "":
		return fmt.Errorf("%w: empty code", ErrInvalidDefinition)
	case p.DiscountPercent.IsNegative() || p.DiscountPercent.GreaterThan(decimal.NewFromInt(100)):
		return fmt.Errorf("%w: %s discountPercent out of range", ErrInvalidDefinition, p.Code)
	case p.IsFlat() && p.DiscountAmountFlat.Decimal.IsNegative():
		return fmt.Errorf("%w: %s negative flat amount", ErrInvalidDefinition, p.Code)
	case p.MinOrderAmount.IsNegative():
		return fmt.Errorf("%w: %s negative minOrderAmount", ErrInvalidDefinition, p.Code)
	case p.MaxUses <= 0 || p.CurrentUses < 0 || p.CurrentUses > p.MaxUses:
		return fmt.Errorf("%w: %s usage counters", ErrInvalidDefinition, p.Code)
	}
	return nil
}

func normalize(code string) string {
	return strings.ToUpper(code)
}

func (r *Registry) Now() time.Time {
	return r.now()
}

// FindByCode resolves code case-insensitively. The returned promo is a copy.
func (r *Registry) FindByCode(code string) (entity.Promo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.promos[normalize(code)]
	if !ok {
		return entity.Promo{}, ErrNotFound
	}
	return *p, nil
}

// ListAvailable returns promos that are active, under their usage cap and
// not yet expired, ordered by code.
func (r *Registry) ListAvailable() []entity.Promo {
	now := r.now()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Promo, 0, len(r.promos))
	for _, p := range r.promos {
		if p.Active && !p.Exhausted() && p.ExpiryDate.After(now) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Redeem records one use of code. It fails once the cap is reached.
func (r *Registry) Redeem(code string) (entity.Promo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[normalize(code)]
	if !ok {
		return entity.Promo{}, ErrNotFound
	}
	if p.Exhausted() {
		return *p, ErrUsageLimitReached
	}
	p.CurrentUses++
	return *p, nil
}

// ParseExpiry parses a date-only expiry string as midnight UTC.
func ParseExpiry(s string) (time.Time, error) {
	return time.ParseInLocation(ExpiryLayout, s, time.UTC)
}

func mustExpiry(s string) time.Time {
	t, err := ParseExpiry(s)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultCatalog is the launch set of promo codes.
func DefaultCatalog() []entity.Promo {
	flat := func(v int64) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.NewFromInt(v)) }
	return []entity.Promo{
		{
			Code: "GLOBAL25", DiscountPercent: decimal.NewFromInt(25), MinOrderAmount: decimal.NewFromInt(2500),
			MaxUses: 100, CurrentUses: 45, ExpiryDate: mustExpiry("2025-12-31"), Active: true,
			Description: "25% off on orders over ₹2,500",
		},
		{
			Code: "SAVE100", DiscountAmountFlat: flat(100), MinOrderAmount: decimal.NewFromInt(1000),
			MaxUses: 200, CurrentUses: 120, ExpiryDate: mustExpiry("2025-06-30"), Active: true,
			Description: "Flat ₹100 off on orders over ₹1,000",
		},
		{
			Code: "FIRST50", DiscountPercent: decimal.NewFromInt(50), MinOrderAmount: decimal.NewFromInt(5000),
			MaxUses: 50, CurrentUses: 48, ExpiryDate: mustExpiry("2025-05-31"), Active: true,
			Description: "50% off on first order above ₹5,000",
		},
		{
			Code: "WELCOME15", DiscountPercent: decimal.NewFromInt(15), MinOrderAmount: decimal.NewFromInt(999),
			MaxUses: 500, CurrentUses: 342, ExpiryDate: mustExpiry("2025-12-31"), Active: true,
			Description: "15% welcome discount for new customers",
		},
		{
			Code: "BULK30", DiscountPercent: decimal.NewFromInt(30), MinOrderAmount: decimal.NewFromInt(10000),
			MaxUses: 150, CurrentUses: 89, ExpiryDate: mustExpiry("2025-08-31"), Active: true,
			Description: "30% off on bulk orders above ₹10,000",
		},
	}
}

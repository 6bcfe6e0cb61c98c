package configs

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aq2208/storefront-checkout/internal/catalog"
	"github.com/aq2208/storefront-checkout/internal/entity"
	"github.com/aq2208/storefront-checkout/internal/pricing"
	"github.com/aq2208/storefront-checkout/internal/promo"
)

// Money values are strings so they reach decimal without a float detour.
type PricingConfig struct {
	FreeShippingThreshold    string `koanf:"free_shipping_threshold"`
	StandardShippingFee      string `koanf:"standard_shipping_fee"`
	TaxRate                  string `koanf:"tax_rate"`
	LoyaltyDiscountThreshold string `koanf:"loyalty_discount_threshold"`
	LoyaltyDiscountRate      string `koanf:"loyalty_discount_rate"`
}

type PromoConfig struct {
	Code            string `koanf:"code"`
	DiscountPercent string `koanf:"discount_percent"`
	// DiscountAmount makes the promo a flat deduction when set.
	DiscountAmount string `koanf:"discount_amount"`
	MinOrderAmount string `koanf:"min_order_amount"`
	MaxUses        int    `koanf:"max_uses"`
	CurrentUses    int    `koanf:"current_uses"`
	Expiry         string `koanf:"expiry"`
	Active         bool   `koanf:"active"`
	Description    string `koanf:"description"`
}

type ProductConfig struct {
	ID            string `koanf:"id"`
	Name          string `koanf:"name"`
	Category      string `koanf:"category"`
	Price         string `koanf:"price"`
	OriginalPrice string `koanf:"original_price"`
	InStock       bool   `koanf:"in_stock"`
}

func amount(field, s string, def decimal.Decimal) (decimal.Decimal, error) {
	if s == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

// Rates overlays configured values on the default pricing rates.
func (p PricingConfig) Rates() (pricing.Rates, error) {
	r := pricing.DefaultRates()
	var err error
	if r.FreeShippingThreshold, err = amount("pricing.free_shipping_threshold", p.FreeShippingThreshold, r.FreeShippingThreshold); err != nil {
		return r, err
	}
	if r.StandardShippingFee, err = amount("pricing.standard_shipping_fee", p.StandardShippingFee, r.StandardShippingFee); err != nil {
		return r, err
	}
	if r.TaxRate, err = amount("pricing.tax_rate", p.TaxRate, r.TaxRate); err != nil {
		return r, err
	}
	if r.LoyaltyDiscountThreshold, err = amount("pricing.loyalty_discount_threshold", p.LoyaltyDiscountThreshold, r.LoyaltyDiscountThreshold); err != nil {
		return r, err
	}
	if r.LoyaltyDiscountRate, err = amount("pricing.loyalty_discount_rate", p.LoyaltyDiscountRate, r.LoyaltyDiscountRate); err != nil {
		return r, err
	}
	return r, nil
}

// PromoCatalog converts the configured promos, falling back to the built-in
// set when none are configured.
func (c Config) PromoCatalog() ([]entity.Promo, error) {
	if len(c.Promos) == 0 {
		return promo.DefaultCatalog(), nil
	}
	out := make([]entity.Promo, 0, len(c.Promos))
	for i, pc := range c.Promos {
		field := fmt.Sprintf("promos[%d]", i)
		pct, err := amount(field+".discount_percent", pc.DiscountPercent, decimal.Zero)
		if err != nil {
			return nil, err
		}
		minOrder, err := amount(field+".min_order_amount", pc.MinOrderAmount, decimal.Zero)
		if err != nil {
			return nil, err
		}
		expiry, err := promo.ParseExpiry(pc.Expiry)
		if err != nil {
			return nil, fmt.Errorf("%s.expiry: %w", field, err)
		}
		p := entity.Promo{
			Code:            pc.Code,
			DiscountPercent: pct,
			MinOrderAmount:  minOrder,
			MaxUses:         pc.MaxUses,
			CurrentUses:     pc.CurrentUses,
			ExpiryDate:      expiry,
			Active:          pc.Active,
			Description:     pc.Description,
		}
		if pc.DiscountAmount != "" {
			flat, err := amount(field+".discount_amount", pc.DiscountAmount, decimal.Zero)
			if err != nil {
				return nil, err
			}
			p.DiscountAmountFlat = decimal.NewNullDecimal(flat)
		}
		out = append(out, p)
	}
	// catches duplicates and out-of-range values
	if _, err := promo.NewRegistry(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProductCatalog converts the configured products, falling back to the
// built-in set when none are configured.
func (c Config) ProductCatalog() ([]catalog.Product, error) {
	if len(c.Products) == 0 {
		return catalog.DefaultProducts(), nil
	}
	out := make([]catalog.Product, 0, len(c.Products))
	for i, pc := range c.Products {
		field := fmt.Sprintf("products[%d]", i)
		price, err := amount(field+".price", pc.Price, decimal.Zero)
		if err != nil {
			return nil, err
		}
		p := catalog.Product{ID: pc.ID, Name: pc.Name, Category: pc.Category, Price: price, InStock: pc.InStock}
		if pc.OriginalPrice != "" {
			orig, err := amount(field+".original_price", pc.OriginalPrice, decimal.Zero)
			if err != nil {
				return nil, err
			}
			p.OriginalPrice = decimal.NewNullDecimal(orig)
		}
		out = append(out, p)
	}
	if _, err := catalog.New(out); err != nil {
		return nil, err
	}
	return out, nil
}

package checkout

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/aq2208/storefront-checkout/internal/entity"
)

// ValidationError lists the fields that blocked a forward step. Field names
// match the JSON names the client sends.
type ValidationError struct {
	Step   Step
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout %s: invalid fields %s", strings.ToLower(e.Step.String()), strings.Join(e.Fields, ", "))
}

// CardDetails are only inspected, never persisted on the order. A session
// keeps them without number and CVV.
type CardDetails struct {
	Number      string `json:"number"`
	Holder      string `json:"holder"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CVV         string `json:"cvv"`
}

// NormalizedNumber strips whitespace from the card number.
func (c CardDetails) NormalizedNumber() string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, c.Number)
}

// withoutSecrets drops the card number and CVV.
func (c CardDetails) withoutSecrets() CardDetails {
	return CardDetails{Holder: c.Holder, ExpiryMonth: c.ExpiryMonth, ExpiryYear: c.ExpiryYear}
}

// Last4 is safe to log.
func (c CardDetails) Last4() string {
	n := c.NormalizedNumber()
	if len(n) < 4 {
		return ""
	}
	return n[len(n)-4:]
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func digits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateAddress returns the required fields that are empty.
func ValidateAddress(a entity.Address) []string {
	var bad []string
	check := func(field, v string) {
		if blank(v) {
			bad = append(bad, field)
		}
	}
	check("firstName", a.FirstName)
	check("lastName", a.LastName)
	check("email", a.Email)
	check("phone", a.Phone)
	check("street", a.Street)
	check("city", a.City)
	check("state", a.State)
	check("postalCode", a.PostalCode)
	return bad
}

// ValidateCard returns the card fields that are missing or malformed.
func ValidateCard(c CardDetails) []string {
	var bad []string
	if !digits(c.NormalizedNumber(), 16) {
		bad = append(bad, "card.number")
	}
	if blank(c.Holder) {
		bad = append(bad, "card.holder")
	}
	if m, err := strconv.Atoi(strings.TrimSpace(c.ExpiryMonth)); err != nil || m < 1 || m > 12 {
		bad = append(bad, "card.expiryMonth")
	}
	if !digits(strings.TrimSpace(c.ExpiryYear), 2) {
		bad = append(bad, "card.expiryYear")
	}
	if !digits(strings.TrimSpace(c.CVV), 3) {
		bad = append(bad, "card.cvv")
	}
	return bad
}

// ValidatePayment checks card details only when paying by card.
func ValidatePayment(m entity.PaymentMethod, c CardDetails) []string {
	if !m.Valid() {
		return []string{"paymentMethod"}
	}
	if m != entity.PaymentCard {
		return nil
	}
	return ValidateCard(c)
}

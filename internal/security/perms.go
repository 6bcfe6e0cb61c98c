package security

const (
	PermCartWrite     = "cart.write"
	PermCheckoutWrite = "checkout.write"
	PermOrdersRead    = "orders.read"
)

// GuestPerms are granted to every shopper token.
var GuestPerms = []string{PermCartWrite, PermCheckoutWrite, PermOrdersRead}

package domain

// CheckoutSession is the provider-issued token for a pending purchase flow.
// It is consumed by the redirect and never persisted.
type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"-"`
}

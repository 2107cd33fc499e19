// Package payments holds the gateway adapters: the synchronous card gateway
// (Stripe) and the redirect gateway (SSLCommerz-style hosted page with a
// server-to-server notification).
package payments

// Charge is the normalized result of a successful synchronous card charge.
type Charge struct {
	ID          string
	AmountCents int64
	Currency    string
}

// Notification statuses delivered by the redirect gateway's IPN callback.
const (
	NotificationValid  = "VALID"
	NotificationFailed = "FAILED"
)

// Notification is the server-to-server callback payload from the redirect
// gateway. CartID travels through the session's passthrough field. AmountCents
// is the settled amount echoed by the gateway, zero when the payload omits it.
type Notification struct {
	Status        string
	TransactionID string
	CartID        string
	AmountCents   int64
}

// CallbackURLs are handed to the redirect gateway when creating a session.
type CallbackURLs struct {
	Success string
	Fail    string
	Cancel  string
	IPN     string
}

// SessionRequest describes the hosted-page session to create.
type SessionRequest struct {
	CartID        string
	AmountCents   int64
	Currency      string
	NumItems      int
	ProductName   string
	URLs          CallbackURLs
	CustomerName  string
	CustomerEmail string
	AddressLine   string
	City          string
	Postcode      string
	Country       string
	Phone         string
}

// RedirectSession is the gateway's answer: where to send the customer.
type RedirectSession struct {
	SessionKey     string
	GatewayPageURL string
}

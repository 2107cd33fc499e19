package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SSLCommerzGateway creates hosted-page sessions with the redirect gateway.
// The outcome arrives later through the IPN callback, never on this path.
type SSLCommerzGateway struct {
	endpoint  string
	storeID   string
	storePass string
	client    *http.Client
	logger    *log.Logger
}

func NewSSLCommerzGateway(endpoint, storeID, storePass string, timeout time.Duration, logger *log.Logger) (*SSLCommerzGateway, error) {
	if strings.TrimSpace(storeID) == "" || strings.TrimSpace(storePass) == "" {
		return nil, errors.New("sslcommerz: store credentials are required")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &SSLCommerzGateway{
		endpoint:  endpoint,
		storeID:   storeID,
		storePass: storePass,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}, nil
}

type sessionResponse struct {
	Status         string `json:"status"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
	FailedReason   string `json:"failedreason"`
}

// CreateSession registers the payment with the gateway and returns the hosted
// page URL to redirect the customer to. Each attempt gets a fresh tran_id so
// retries never collide at the gateway; the cart id rides in value_a so the
// IPN callback can be correlated without a session store.
func (g *SSLCommerzGateway) CreateSession(ctx context.Context, req SessionRequest) (*RedirectSession, error) {
	form := url.Values{}
	form.Set("store_id", g.storeID)
	form.Set("store_passwd", g.storePass)
	form.Set("total_amount", minorUnitsToAmount(req.AmountCents))
	form.Set("currency", req.Currency)
	form.Set("tran_id", uuid.NewString())
	form.Set("value_a", req.CartID)
	form.Set("success_url", req.URLs.Success)
	form.Set("fail_url", req.URLs.Fail)
	form.Set("cancel_url", req.URLs.Cancel)
	form.Set("ipn_url", req.URLs.IPN)
	form.Set("cus_name", req.CustomerName)
	form.Set("cus_email", req.CustomerEmail)
	form.Set("cus_add1", req.AddressLine)
	form.Set("cus_city", req.City)
	form.Set("cus_postcode", req.Postcode)
	form.Set("cus_country", req.Country)
	form.Set("cus_phone", req.Phone)
	form.Set("shipping_method", "YES")
	form.Set("ship_name", req.CustomerName)
	form.Set("ship_add1", req.AddressLine)
	form.Set("ship_city", req.City)
	form.Set("ship_postcode", req.Postcode)
	form.Set("ship_country", req.Country)
	form.Set("num_of_item", strconv.Itoa(req.NumItems))
	form.Set("product_name", req.ProductName)
	form.Set("product_category", "general")
	form.Set("product_profile", "general")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &domain.PaymentError{Code: domain.PaymentUnknown, Msg: "gateway timeout, outcome unknown", Err: err}
		}
		return nil, &domain.PaymentError{Code: domain.PaymentNetworkFailure, Msg: "could not reach gateway", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.PaymentError{Code: domain.PaymentNetworkFailure, Msg: "reading gateway response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.PaymentError{
			Code: domain.PaymentUnknown,
			Msg:  fmt.Sprintf("gateway returned status %d", resp.StatusCode),
		}
	}

	var parsed sessionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &domain.PaymentError{Code: domain.PaymentUnknown, Msg: "unparseable gateway response", Err: err}
	}
	if !strings.EqualFold(parsed.Status, "SUCCESS") || parsed.GatewayPageURL == "" {
		g.logger.Printf("sslcommerz: session rejected: %s", parsed.FailedReason)
		return nil, &domain.PaymentError{Code: domain.PaymentInvalidRequest, Msg: parsed.FailedReason}
	}

	return &RedirectSession{SessionKey: parsed.SessionKey, GatewayPageURL: parsed.GatewayPageURL}, nil
}

// ParseNotification extracts the IPN payload from the gateway's form post.
func ParseNotification(form url.Values) (Notification, error) {
	n := Notification{
		Status:        form.Get("status"),
		TransactionID: form.Get("tran_id"),
		CartID:        form.Get("value_a"),
	}
	if n.Status == "" || n.TransactionID == "" || n.CartID == "" {
		return Notification{}, errors.New("sslcommerz: notification missing status, tran_id or value_a")
	}
	if v := form.Get("amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Notification{}, fmt.Errorf("sslcommerz: unparseable amount %q", v)
		}
		n.AmountCents = d.Mul(decimal.NewFromInt(100)).IntPart()
	}
	return n, nil
}

// minorUnitsToAmount renders cents as the decimal string the gateway expects.
func minorUnitsToAmount(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tuannda91/courtbook/config"
)

// QueryStatus is the provider's tri-state answer for an order.
type QueryStatus int

const (
	StatusProcessing QueryStatus = iota
	StatusSuccess
	StatusFailed
)

// Callback types as defined by the provider.
const (
	CallbackTypePayment = 1
	CallbackTypeRefund  = 2
)

type OrderRequest struct {
	AppTransID  string
	Amount      int64
	Description string
	Metadata    map[string]string
}

type OrderResult struct {
	OrderURL        string
	ProviderOrderID string
}

type CallbackData struct {
	AppTransID      string `json:"app_trans_id"`
	ProviderTransID string `json:"provider_trans_id"`
	Amount          int64  `json:"amount"`
	Type            int    `json:"type"`
}

type QueryResult struct {
	Status          QueryStatus
	ProviderTransID string
}

// Gateway abstracts the external payment provider: hosted-checkout order
// creation, signed-callback verification and order status query. Every call
// is single-attempt; retry policy belongs to the caller, which must unwind
// its own state on failure.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)
	VerifyCallback(data, mac string) bool
	DecodeCallback(data string) (*CallbackData, error)
	QueryOrder(ctx context.Context, appTransID string) (*QueryResult, error)
}

type HTTPGateway struct {
	cfg    config.GatewayConfig
	client *http.Client
}

func NewHTTPGateway(cfg config.GatewayConfig) *HTTPGateway {
	return &HTTPGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type createOrderResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
	OrderURL      string `json:"order_url"`
	OrderToken    string `json:"order_token"`
}

func (g *HTTPGateway) CreateOrder(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	embed, err := json.Marshal(req.Metadata)
	if err != nil {
		return nil, err
	}

	appTime := time.Now().UnixMilli()
	form := url.Values{}
	form.Set("app_id", strconv.Itoa(g.cfg.AppID))
	form.Set("app_trans_id", req.AppTransID)
	form.Set("app_user", "guest")
	form.Set("app_time", strconv.FormatInt(appTime, 10))
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("embed_data", string(embed))
	form.Set("item", "[]")
	form.Set("description", req.Description)
	form.Set("callback_url", g.cfg.CallbackURL)

	// mac over the canonical pipe-joined field string, keyed with key1
	payload := strings.Join([]string{
		strconv.Itoa(g.cfg.AppID), req.AppTransID, "guest",
		strconv.FormatInt(req.Amount, 10), strconv.FormatInt(appTime, 10),
		string(embed), "[]",
	}, "|")
	form.Set("mac", sign(g.cfg.Key1, payload))

	var resp createOrderResponse
	if err := g.postForm(ctx, g.cfg.CreateURL, form, &resp); err != nil {
		return nil, err
	}
	if resp.ReturnCode != 1 {
		return nil, fmt.Errorf("gateway rejected order: %s (code %d)", resp.ReturnMessage, resp.ReturnCode)
	}
	return &OrderResult{OrderURL: resp.OrderURL, ProviderOrderID: resp.OrderToken}, nil
}

// VerifyCallback checks the callback signature: HMAC-SHA256 of the raw data
// string keyed with key2. The comparison is constant-time.
func (g *HTTPGateway) VerifyCallback(data, mac string) bool {
	return hmac.Equal([]byte(sign(g.cfg.Key2, data)), []byte(mac))
}

func (g *HTTPGateway) DecodeCallback(data string) (*CallbackData, error) {
	var cb CallbackData
	if err := json.Unmarshal([]byte(data), &cb); err != nil {
		return nil, err
	}
	if cb.AppTransID == "" {
		return nil, fmt.Errorf("callback data missing app_trans_id")
	}
	return &cb, nil
}

type queryOrderResponse struct {
	ReturnCode      int    `json:"return_code"`
	ReturnMessage   string `json:"return_message"`
	ProviderTransID string `json:"provider_trans_id"`
}

func (g *HTTPGateway) QueryOrder(ctx context.Context, appTransID string) (*QueryResult, error) {
	form := url.Values{}
	form.Set("app_id", strconv.Itoa(g.cfg.AppID))
	form.Set("app_trans_id", appTransID)
	form.Set("mac", sign(g.cfg.Key1, fmt.Sprintf("%d|%s|%s", g.cfg.AppID, appTransID, g.cfg.Key1)))

	var resp queryOrderResponse
	if err := g.postForm(ctx, g.cfg.QueryURL, form, &resp); err != nil {
		return nil, err
	}

	switch resp.ReturnCode {
	case 1:
		return &QueryResult{Status: StatusSuccess, ProviderTransID: resp.ProviderTransID}, nil
	case 2:
		return &QueryResult{Status: StatusFailed}, nil
	case 3:
		return &QueryResult{Status: StatusProcessing}, nil
	default:
		return nil, fmt.Errorf("gateway query failed: %s (code %d)", resp.ReturnMessage, resp.ReturnCode)
	}
}

func (g *HTTPGateway) postForm(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func sign(key, payload string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

var _ Gateway = (*HTTPGateway)(nil)

package payments

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

	"courtside/internal/shared/config"
	"courtside/internal/shared/utils/apperror"

	"github.com/google/uuid"
)

// Gateway outcome as reported by the wallet provider. Timeouts and transport
// failures map to OutcomeProcessing: an unanswered request may still have
// settled on the provider side, so it can never be treated as failed.
type Outcome int

const (
	OutcomeProcessing Outcome = iota
	OutcomeSuccess
	OutcomeFailed
)

const (
	returnCodeSuccess    = 1
	returnCodeFailed     = 2
	returnCodeProcessing = 3
)

// CreateOrderResult is the usable part of a create-order response
type CreateOrderResult struct {
	OrderURL     string
	ZpTransToken string
}

// QueryResult is the usable part of an order-status query response
type QueryResult struct {
	Outcome   Outcome
	ZpTransID *int64
	Amount    int64
}

// CallbackResult is the verified content of a gateway callback
type CallbackResult struct {
	AppTransID string
	ZpTransID  int64
	Amount     int64
	RawData    string
}

// Gateway is the wallet gateway adapter. It owns request signing, callback
// verification and the return-code mapping; everything above it deals in
// Outcome values only.
type Gateway interface {
	// CreateOrder opens an order. embed carries internal correlation ids so
	// the callback can be matched without a lookup by external id alone.
	CreateOrder(ctx context.Context, appTransID string, amount int64, description string, embed map[string]string) (*CreateOrderResult, error)
	QueryOrder(ctx context.Context, appTransID string) (*QueryResult, error)
	VerifyCallback(body []byte) (*CallbackResult, error)
}

type zaloPayGateway struct {
	cfg    config.ZaloPayConfig
	client *http.Client
}

// NewZaloPayGateway creates the wallet gateway adapter
func NewZaloPayGateway(cfg config.ZaloPayConfig) Gateway {
	return &zaloPayGateway{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.QueryTimeout,
		},
	}
}

// NewAppTransID builds a merchant transaction id. The provider requires the
// yymmdd prefix to match its settlement day; the uuid fragment keeps ids
// unique within the day.
func NewAppTransID(now time.Time) string {
	fragment := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s_%s", now.Format("060102"), fragment)
}

type createOrderResponse struct {
	ReturnCode       int    `json:"return_code"`
	ReturnMessage    string `json:"return_message"`
	SubReturnCode    int    `json:"sub_return_code"`
	SubReturnMessage string `json:"sub_return_message"`
	OrderURL         string `json:"order_url"`
	ZpTransToken     string `json:"zp_trans_token"`
}

func (g *zaloPayGateway) CreateOrder(ctx context.Context, appTransID string, amount int64, description string, embed map[string]string) (*CreateOrderResult, error) {
	appTime := time.Now().UnixMilli()

	embedFields := make(map[string]string, len(embed)+1)
	for k, v := range embed {
		embedFields[k] = v
	}
	if g.cfg.CallbackURL != "" {
		embedFields["redirecturl"] = g.cfg.CallbackURL
	}
	embedData := "{}"
	if len(embedFields) > 0 {
		raw, _ := json.Marshal(embedFields)
		embedData = string(raw)
	}
	item := "[]"

	// MAC input order is fixed by the provider
	macData := fmt.Sprintf("%d|%s|%s|%d|%d|%s|%s",
		g.cfg.AppID, appTransID, g.cfg.AppUser, amount, appTime, embedData, item)

	form := url.Values{}
	form.Set("app_id", strconv.Itoa(g.cfg.AppID))
	form.Set("app_trans_id", appTransID)
	form.Set("app_user", g.cfg.AppUser)
	form.Set("app_time", strconv.FormatInt(appTime, 10))
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("embed_data", embedData)
	form.Set("item", item)
	form.Set("description", description)
	if g.cfg.CallbackURL != "" {
		form.Set("callback_url", g.cfg.CallbackURL)
	}
	form.Set("mac", g.sign(g.cfg.Key1, macData))

	var resp createOrderResponse
	if err := g.postForm(ctx, g.cfg.CreateURL, form, &resp); err != nil {
		return nil, err
	}

	switch resp.ReturnCode {
	case returnCodeSuccess:
		return &CreateOrderResult{OrderURL: resp.OrderURL, ZpTransToken: resp.ZpTransToken}, nil
	case returnCodeProcessing:
		return nil, apperror.UpstreamTransient("gateway is still processing the order", nil)
	default:
		return nil, apperror.UpstreamRejected(fmt.Sprintf("gateway rejected order: %s", resp.ReturnMessage))
	}
}

type queryResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
	IsProcessing  bool   `json:"is_processing"`
	Amount        int64  `json:"amount"`
	ZpTransID     int64  `json:"zp_trans_id"`
}

func (g *zaloPayGateway) QueryOrder(ctx context.Context, appTransID string) (*QueryResult, error) {
	macData := fmt.Sprintf("%d|%s|%s", g.cfg.AppID, appTransID, g.cfg.Key1)

	form := url.Values{}
	form.Set("app_id", strconv.Itoa(g.cfg.AppID))
	form.Set("app_trans_id", appTransID)
	form.Set("mac", g.sign(g.cfg.Key1, macData))

	var resp queryResponse
	if err := g.postForm(ctx, g.cfg.QueryURL, form, &resp); err != nil {
		return nil, err
	}

	result := &QueryResult{Amount: resp.Amount}
	switch resp.ReturnCode {
	case returnCodeSuccess:
		result.Outcome = OutcomeSuccess
		if resp.ZpTransID != 0 {
			id := resp.ZpTransID
			result.ZpTransID = &id
		}
	case returnCodeFailed:
		result.Outcome = OutcomeFailed
	default:
		result.Outcome = OutcomeProcessing
	}
	if resp.IsProcessing {
		result.Outcome = OutcomeProcessing
	}
	return result, nil
}

type callbackEnvelope struct {
	Data string `json:"data"`
	Mac  string `json:"mac"`
	Type int    `json:"type"`
}

type callbackData struct {
	AppID      int    `json:"app_id"`
	AppTransID string `json:"app_trans_id"`
	AppUser    string `json:"app_user"`
	Amount     int64  `json:"amount"`
	ZpTransID  int64  `json:"zp_trans_id"`
}

// VerifyCallback authenticates a callback body. The MAC is computed over the
// data string exactly as received; re-serializing it would break verification
// on key-order differences.
func (g *zaloPayGateway) VerifyCallback(body []byte) (*CallbackResult, error) {
	var envelope callbackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "malformed callback body", err)
	}
	if envelope.Data == "" || envelope.Mac == "" {
		return nil, apperror.Validation("callback is missing data or mac")
	}

	expected := g.sign(g.cfg.Key2, envelope.Data)
	if !hmac.Equal([]byte(expected), []byte(envelope.Mac)) {
		return nil, apperror.UpstreamRejected("callback mac verification failed")
	}

	var data callbackData
	if err := json.Unmarshal([]byte(envelope.Data), &data); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "malformed callback data", err)
	}

	return &CallbackResult{
		AppTransID: data.AppTransID,
		ZpTransID:  data.ZpTransID,
		Amount:     data.Amount,
		RawData:    envelope.Data,
	}, nil
}

func (g *zaloPayGateway) sign(key, data string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *zaloPayGateway) postForm(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return apperror.Internal("failed to build gateway request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		// Could be a timeout on a request the provider already accepted
		return apperror.UpstreamTransient("gateway request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperror.UpstreamTransient(fmt.Sprintf("gateway returned status %d", resp.StatusCode), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.UpstreamTransient("failed to decode gateway response", err)
	}
	return nil
}

package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"courtside/internal/shared/config"
	"courtside/internal/shared/utils/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGatewayConfig(createURL, queryURL string) config.ZaloPayConfig {
	return config.ZaloPayConfig{
		AppID:        2553,
		Key1:         "test-key-1",
		Key2:         "test-key-2",
		CreateURL:    createURL,
		QueryURL:     queryURL,
		AppUser:      "courtside",
		QueryTimeout: 2 * time.Second,
	}
}

func signWith(key, data string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestNewAppTransID(t *testing.T) {
	now := time.Date(2026, 9, 7, 14, 30, 0, 0, time.UTC)
	id := NewAppTransID(now)

	// yymmdd prefix, underscore, 12 hex chars from the uuid fragment
	assert.Regexp(t, regexp.MustCompile(`^260907_[0-9a-f]{12}$`), id)

	// Unique within the day
	assert.NotEqual(t, id, NewAppTransID(now))
}

func TestCreateOrder_Success(t *testing.T) {
	var gotMac, gotMacData string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotMac = r.FormValue("mac")
		gotMacData = fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
			r.FormValue("app_id"), r.FormValue("app_trans_id"), r.FormValue("app_user"),
			r.FormValue("amount"), r.FormValue("app_time"), r.FormValue("embed_data"), r.FormValue("item"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"return_code": 1,
			"order_url":   "https://qcgateway.example/pay/abc",
		})
	}))
	defer srv.Close()

	gateway := NewZaloPayGateway(testGatewayConfig(srv.URL, srv.URL))
	result, err := gateway.CreateOrder(context.Background(), "260907_abcdef123456", 160000, "Court booking", map[string]string{"booking_id": "b-1"})

	require.NoError(t, err)
	assert.Equal(t, "https://qcgateway.example/pay/abc", result.OrderURL)

	// The request must be signed over the exact field order the provider fixes
	assert.Equal(t, signWith("test-key-1", gotMacData), gotMac)
}

func TestCreateOrder_ReturnCodeMapping(t *testing.T) {
	tests := []struct {
		name       string
		returnCode int
		wantKind   apperror.Kind
	}{
		{"processing is transient", 3, apperror.KindUpstreamTransient},
		{"failure is rejected", 2, apperror.KindUpstreamRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"return_code":    tt.returnCode,
					"return_message": "nope",
				})
			}))
			defer srv.Close()

			gateway := NewZaloPayGateway(testGatewayConfig(srv.URL, srv.URL))
			_, err := gateway.CreateOrder(context.Background(), "260907_abcdef123456", 160000, "Court booking", nil)

			require.Error(t, err)
			assert.True(t, apperror.IsKind(err, tt.wantKind))
		})
	}
}

func TestCreateOrder_TransportFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	gateway := NewZaloPayGateway(testGatewayConfig(srv.URL, srv.URL))
	_, err := gateway.CreateOrder(context.Background(), "260907_abcdef123456", 160000, "Court booking", nil)

	require.Error(t, err)
	// A non-200 may hide an accepted order, it can never be a definite failure
	assert.True(t, apperror.IsKind(err, apperror.KindUpstreamTransient))
}

func TestQueryOrder_OutcomeMapping(t *testing.T) {
	tests := []struct {
		name        string
		response    map[string]interface{}
		wantOutcome Outcome
		wantZpTrans bool
	}{
		{
			name:        "success",
			response:    map[string]interface{}{"return_code": 1, "amount": 160000, "zp_trans_id": 987654},
			wantOutcome: OutcomeSuccess,
			wantZpTrans: true,
		},
		{
			name:        "failed",
			response:    map[string]interface{}{"return_code": 2},
			wantOutcome: OutcomeFailed,
		},
		{
			name:        "processing code",
			response:    map[string]interface{}{"return_code": 3},
			wantOutcome: OutcomeProcessing,
		},
		{
			name:        "is_processing overrides success code",
			response:    map[string]interface{}{"return_code": 1, "is_processing": true},
			wantOutcome: OutcomeProcessing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer srv.Close()

			gateway := NewZaloPayGateway(testGatewayConfig(srv.URL, srv.URL))
			result, err := gateway.QueryOrder(context.Background(), "260907_abcdef123456")

			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, result.Outcome)
			if tt.wantZpTrans {
				require.NotNil(t, result.ZpTransID)
				assert.Equal(t, int64(987654), *result.ZpTransID)
			}
		})
	}
}

func TestVerifyCallback(t *testing.T) {
	gateway := NewZaloPayGateway(testGatewayConfig("http://unused", "http://unused"))

	data := `{"app_id":2553,"app_trans_id":"260907_abcdef123456","app_user":"courtside","amount":160000,"zp_trans_id":987654}`

	t.Run("valid mac", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{
			"data": data,
			"mac":  signWith("test-key-2", data),
			"type": 1,
		})

		result, err := gateway.VerifyCallback(body)
		require.NoError(t, err)
		assert.Equal(t, "260907_abcdef123456", result.AppTransID)
		assert.Equal(t, int64(160000), result.Amount)
		assert.Equal(t, int64(987654), result.ZpTransID)
		assert.Equal(t, data, result.RawData, "raw data must be preserved byte for byte")
	})

	t.Run("tampered data", func(t *testing.T) {
		tampered := `{"app_id":2553,"app_trans_id":"260907_abcdef123456","amount":1,"zp_trans_id":987654}`
		body, _ := json.Marshal(map[string]interface{}{
			"data": tampered,
			"mac":  signWith("test-key-2", data),
			"type": 1,
		})

		_, err := gateway.VerifyCallback(body)
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindUpstreamRejected))
	})

	t.Run("mac signed with wrong key", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{
			"data": data,
			"mac":  signWith("test-key-1", data),
			"type": 1,
		})

		_, err := gateway.VerifyCallback(body)
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindUpstreamRejected))
	})

	t.Run("missing mac", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{"data": data})
		_, err := gateway.VerifyCallback(body)
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := gateway.VerifyCallback([]byte("not json"))
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})
}

package subscription

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vieclam_backend/pkg/apperrors"
)

func newTestCheckoutService(baseURL string, timeout time.Duration) *CheckoutService {
	return &CheckoutService{
		BaseURL:    baseURL,
		SecretKey:  "sk-test",
		ClientURL:  "http://localhost:3000",
		Currency:   "VND",
		httpClient: &http.Client{Timeout: timeout},
	}
}

func TestCreateSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Gói Doanh Nghiệp", body["name"])
		assert.Equal(t, "VND", body["currency"])
		assert.Equal(t, "user-1", body["client_reference_id"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":  "cs_123",
			"url": "https://pay.test/cs_123",
		})
	}))
	defer server.Close()

	svc := newTestCheckoutService(server.URL, time.Second)

	session, err := svc.CreateSession(context.Background(), CreateSessionParams{
		PlanName:          "Gói Doanh Nghiệp",
		Description:       "30 ngày",
		Amount:            899000,
		ClientReferenceID: "user-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_123", session.ID)
	assert.Equal(t, "https://pay.test/cs_123", session.URL)
}

func TestVerifySession_Paid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions/cs_123", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                  "cs_123",
			"payment_status":      "paid",
			"client_reference_id": "user-1",
			"amount_total":        899000,
		})
	}))
	defer server.Close()

	svc := newTestCheckoutService(server.URL, time.Second)

	payment, err := svc.VerifySession(context.Background(), "cs_123", "user-1")

	require.NoError(t, err)
	assert.Equal(t, "cs_123", payment.SessionID)
	assert.Equal(t, "user-1", payment.PayerID)
	assert.Equal(t, float64(899000), payment.Amount)
}

func TestVerifySession_Unpaid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                  "cs_123",
			"payment_status":      "unpaid",
			"client_reference_id": "user-1",
		})
	}))
	defer server.Close()

	svc := newTestCheckoutService(server.URL, time.Second)

	_, err := svc.VerifySession(context.Background(), "cs_123", "user-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrPaymentIncomplete))
}

// Детали ошибки принадлежат своему запросу: повторная проверка с другим
// статусом не перезаписывает их и не трогает общий sentinel.
func TestVerifySession_ErrorDetailsPerRequest(t *testing.T) {
	statuses := []string{"unpaid", "pending"}
	var call int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                  "cs_123",
			"payment_status":      statuses[call],
			"client_reference_id": "user-1",
		})
		call++
	}))
	defer server.Close()

	svc := newTestCheckoutService(server.URL, time.Second)

	_, firstErr := svc.VerifySession(context.Background(), "cs_123", "user-1")
	_, secondErr := svc.VerifySession(context.Background(), "cs_123", "user-1")

	var first, second *apperrors.AppError
	require.True(t, apperrors.As(firstErr, &first))
	require.True(t, apperrors.As(secondErr, &second))

	assert.Equal(t, map[string]string{"payment_status": "unpaid"}, first.Details)
	assert.Equal(t, map[string]string{"payment_status": "pending"}, second.Details)
	assert.Nil(t, apperrors.ErrPaymentIncomplete.Details)
}

// Сессию оплатил другой пользователь - подтверждение отклоняется.
func TestVerifySession_PayerMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                  "cs_123",
			"payment_status":      "paid",
			"client_reference_id": "user-2",
		})
	}))
	defer server.Close()

	svc := newTestCheckoutService(server.URL, time.Second)

	_, err := svc.VerifySession(context.Background(), "cs_123", "user-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrPayerMismatch))
}

func TestVerifySession_UnknownSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	svc := newTestCheckoutService(server.URL, time.Second)

	_, err := svc.VerifySession(context.Background(), "cs_missing", "user-1")

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.HTTPCode)
}

func TestVerifySession_ProviderTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	svc := newTestCheckoutService(server.URL, 50*time.Millisecond)

	_, err := svc.VerifySession(context.Background(), "cs_123", "user-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrPaymentProviderTimeout))
}

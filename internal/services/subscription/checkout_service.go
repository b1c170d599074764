package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"vieclam_backend/internal/config"
	"vieclam_backend/pkg/apperrors"
)

// CheckoutService - клиент checkout-сессий платежного провайдера.
// Создает сессию перед оплатой и подтверждает ее статус после
// редиректа. Подтверждение выполняется ДО открытия транзакции
// активации: сетевой вызов не должен держать транзакцию.
type CheckoutService struct {
	BaseURL   string
	SecretKey string
	ClientURL string
	Currency  string

	httpClient *http.Client
}

func NewCheckoutService(cfg *config.Config) *CheckoutService {
	return &CheckoutService{
		BaseURL:   cfg.Payment.BaseURL,
		SecretKey: cfg.Payment.SecretKey,
		ClientURL: cfg.Payment.ClientURL,
		Currency:  cfg.Payment.Currency,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Payment.TimeoutSeconds) * time.Second,
		},
	}
}

// CheckoutSession - ответ провайдера о сессии.
type CheckoutSession struct {
	ID                string  `json:"id"`
	URL               string  `json:"url"`
	PaymentStatus     string  `json:"payment_status"`
	ClientReferenceID string  `json:"client_reference_id"`
	AmountTotal       float64 `json:"amount_total"`
}

// VerifiedPayment - подтвержденная оплата, привязанная к плательщику.
type VerifiedPayment struct {
	SessionID string
	PayerID   string
	Amount    float64
}

type CreateSessionParams struct {
	PlanName    string
	Description string
	Amount      float64
	// Локальный id пользователя; провайдер вернет его как
	// client_reference_id - единственную привязку сессии к плательщику.
	ClientReferenceID string
}

const paymentStatusPaid = "paid"

func (s *CheckoutService) CreateSession(ctx context.Context, params CreateSessionParams) (*CheckoutSession, error) {
	body := map[string]interface{}{
		"name":                params.PlanName,
		"description":         params.Description,
		"amount":              params.Amount,
		"currency":            s.Currency,
		"client_reference_id": params.ClientReferenceID,
		"success_url":         s.ClientURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		"cancel_url":          s.ClientURL + "/payment/cancel",
	}

	var session CheckoutSession
	if err := s.do(ctx, http.MethodPost, "/v1/checkout/sessions", body, &session); err != nil {
		return nil, err
	}
	if session.ID == "" || session.URL == "" {
		return nil, apperrors.ExternalServiceError(
			fmt.Errorf("provider returned incomplete session"), "payment")
	}
	return &session, nil
}

// VerifySession подтверждает оплату: статус должен быть "paid",
// а client_reference_id сессии - совпадать с ожидаемым плательщиком.
// Это единственная проверка, связывающая сессию с принципалом.
func (s *CheckoutService) VerifySession(ctx context.Context, sessionID, expectedPayerID string) (*VerifiedPayment, error) {
	var session CheckoutSession
	if err := s.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+sessionID, nil, &session); err != nil {
		return nil, err
	}

	if session.PaymentStatus != paymentStatusPaid {
		return nil, apperrors.ErrPaymentIncomplete.WithDetails(map[string]string{
			"payment_status": session.PaymentStatus,
		})
	}
	if session.ClientReferenceID != expectedPayerID {
		return nil, apperrors.ErrPayerMismatch
	}

	return &VerifiedPayment{
		SessionID: session.ID,
		PayerID:   session.ClientReferenceID,
		Amount:    session.AmountTotal,
	}, nil
}

func (s *CheckoutService) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.InternalError(err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, reader)
	if err != nil {
		return apperrors.InternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.SecretKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return apperrors.ErrPaymentProviderTimeout
		}
		return apperrors.ExternalServiceError(err, "payment")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound(fmt.Errorf("checkout session not found"))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return apperrors.ExternalServiceError(
			fmt.Errorf("provider %s %s: status %d", method, path, resp.StatusCode), "payment")
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.ExternalServiceError(err, "payment")
		}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

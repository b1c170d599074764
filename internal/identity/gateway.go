package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"vieclam_backend/pkg/apperrors"
)

// AccountManager - out-of-band операции над учеткой в auth-шлюзе.
// Локальная БД хранит только флаг бана; сама блокировка входа
// выполняется на стороне шлюза.
type AccountManager interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (string, error)
	SetDisabled(ctx context.Context, subjectID string, disabled bool) error
	DeleteAccount(ctx context.Context, subjectID string) error
}

type GatewayClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewGatewayClient(baseURL, apiKey string, timeout time.Duration) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateAccount заводит учетку в шлюзе и возвращает subject id.
func (g *GatewayClient) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	body := map[string]string{
		"email":        email,
		"password":     password,
		"display_name": displayName,
	}

	var resp struct {
		UID string `json:"uid"`
	}
	if err := g.do(ctx, http.MethodPost, "/v1/accounts", body, &resp); err != nil {
		return "", err
	}
	if resp.UID == "" {
		return "", apperrors.ExternalServiceError(fmt.Errorf("gateway returned empty uid"), "identity_gateway")
	}
	return resp.UID, nil
}

func (g *GatewayClient) SetDisabled(ctx context.Context, subjectID string, disabled bool) error {
	body := map[string]bool{"disabled": disabled}
	return g.do(ctx, http.MethodPatch, "/v1/accounts/"+subjectID, body, nil)
}

func (g *GatewayClient) DeleteAccount(ctx context.Context, subjectID string) error {
	return g.do(ctx, http.MethodDelete, "/v1/accounts/"+subjectID, nil, nil)
}

func (g *GatewayClient) do(ctx context.Context, method, path string, body, out interface{}) error {
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

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return apperrors.InternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return apperrors.ExternalServiceError(err, "identity_gateway")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.ExternalServiceError(
			fmt.Errorf("gateway %s %s: status %d", method, path, resp.StatusCode),
			"identity_gateway",
		)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.ExternalServiceError(err, "identity_gateway")
		}
	}
	return nil
}

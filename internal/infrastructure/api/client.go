// Package api implementa el cliente HTTP del agente contra el servidor central.
// Todas las operaciones de sync son idempotentes del lado servidor, así que el
// cliente reintenta con backoff exponencial acotado ante fallos de red o 5xx.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tu-usuario/pdv-pro/internal/application/dto"
	"github.com/tu-usuario/pdv-pro/pkg/logger"
)

const (
	maxRetries   = 3
	initialDelay = 500 * time.Millisecond
)

// Client cliente del API de sincronización.
type Client struct {
	baseURL    string
	email      string
	password   string
	token      string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient construye el cliente. baseURL sin slash final (ej. http://localhost:8080).
func NewClient(baseURL, email, password string, log *logger.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		email:      email,
		password:   password,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.Component("api-client"),
	}
}

// Login autentica con las credenciales del terminal y guarda el token JWT.
func (c *Client) Login(ctx context.Context) error {
	body, err := json.Marshal(dto.LoginRequest{Email: c.email, Password: c.password})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login: status %d", resp.StatusCode)
	}
	var out dto.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("login: decodificar respuesta: %w", err)
	}
	c.token = out.Token
	return nil
}

// PushProducts envía el lote de productos pendientes.
func (c *Client) PushProducts(ctx context.Context, in dto.SyncProductsRequest) (*dto.SyncResponse, error) {
	var out dto.SyncResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/sync/products", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PushSales envía el lote de ventas pendientes.
func (c *Client) PushSales(ctx context.Context, in dto.SyncSalesRequest) (*dto.SyncResponse, error) {
	var out dto.SyncResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/sync/sales", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PullProducts trae los productos con cambios posteriores a since.
func (c *Client) PullProducts(ctx context.Context, since time.Time) (*dto.PullProductsResponse, error) {
	var out dto.PullProductsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/sync/products?"+sinceQuery(since), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PullSales trae las ventas con cambios posteriores a since.
func (c *Client) PullSales(ctx context.Context, since time.Time) (*dto.PullSalesResponse, error) {
	var out dto.PullSalesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/sync/sales?"+sinceQuery(since), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status consulta el resumen de sincronización del establecimiento.
func (c *Client) Status(ctx context.Context) (*dto.SyncStatusResponse, error) {
	var out dto.SyncStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/sync/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// doJSON ejecuta la llamada con reintentos. Ante 401 renueva el token una vez;
// ante error de red o 5xx reintenta con backoff exponencial.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return err
		}
	}

	delay := initialDelay
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		status, err := c.doOnce(ctx, method, path, body, out)
		if err == nil && status == http.StatusUnauthorized {
			// Token vencido: renovar y repetir sin consumir reintento de red
			if err := c.Login(ctx); err != nil {
				lastErr = err
				continue
			}
			status, err = c.doOnce(ctx, method, path, body, out)
		}
		if err != nil {
			lastErr = err
			c.log.Warn().Err(err).Str("path", path).Int("attempt", attempt+1).Msg("llamada fallida, reintentando")
			continue
		}
		if status >= 500 {
			lastErr = fmt.Errorf("%s %s: status %d", method, path, status)
			c.log.Warn().Int("status", status).Str("path", path).Int("attempt", attempt+1).Msg("error del servidor, reintentando")
			continue
		}
		if status >= 400 {
			return fmt.Errorf("%s %s: status %d", method, path, status)
		}
		return nil
	}
	return fmt.Errorf("agotados los reintentos: %w", lastErr)
}

func (c *Client) doOnce(ctx context.Context, method, path string, body []byte, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decodificar respuesta: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func sinceQuery(since time.Time) string {
	q := url.Values{}
	if !since.IsZero() {
		q.Set("since", since.Format(time.RFC3339Nano))
	}
	return q.Encode()
}

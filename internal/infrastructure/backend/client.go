// Package backend cliente del backend institucional de préstamos (REST, sobre JSON uniforme).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/pkg/config"
	"github.com/jhoicas/prestamos-api/pkg/jwt"
	"github.com/jhoicas/prestamos-api/pkg/logger"
)

const maxBodyBytes = 4 << 20

var tracer = otel.Tracer("github.com/jhoicas/prestamos-api/internal/infrastructure/backend")

// Client cliente HTTP compartido. El token del operador viaja en el contexto
// (jwt.ContextWithToken) y se reenvía como Bearer en cada llamada.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Logger
}

// NewClient construye el cliente. RatePerSec <= 0 deshabilita el límite de llamadas.
func NewClient(cfg config.BackendConfig, log *logger.Logger) *Client {
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		log:        log.Component("backend"),
	}
}

// ── Sobre de respuesta ────────────────────────────────────────────────────────

// messageField acepta {"content": [...]}, {"content": "..."} o un string plano.
type messageField struct {
	Content []string
}

func (m *messageField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		m.Content = []string{s}
		return nil
	}
	var obj struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if len(obj.Content) == 0 || string(obj.Content) == "null" {
		return nil
	}
	if obj.Content[0] == '"' {
		var s string
		if err := json.Unmarshal(obj.Content, &s); err != nil {
			return err
		}
		m.Content = []string{s}
		return nil
	}
	return json.Unmarshal(obj.Content, &m.Content)
}

type envelope struct {
	Success *bool           `json:"success"`
	Message messageField    `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ok: un sobre sin el campo success se considera exitoso.
func (e *envelope) ok() bool { return e.Success == nil || *e.Success }

func (e *envelope) hasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

// ── Transporte ────────────────────────────────────────────────────────────────

// do ejecuta la llamada y decodifica el sobre. Solo devuelve error por transporte o por
// estado HTTP no 2xx (*domain.RemoteError); success=false se devuelve en el sobre.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*envelope, error) {
	ctx, span := tracer.Start(ctx, "backend "+method+" "+routeOf(path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.request.method", method)))
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("backend: límite de llamadas: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("backend: serializar request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("backend: crear request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := jwt.TokenFromContext(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transporte")
		if ctx.Err() != nil {
			return nil, fmt.Errorf("backend: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("backend: leer respuesta: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := &domain.RemoteError{Status: resp.StatusCode, Body: truncate(string(raw), 500)}
		if decodeErr == nil {
			rerr.Messages = env.Message.Content
		}
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("backend respondió con error")
		return nil, rerr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("backend: respuesta no es JSON válido: %w", decodeErr)
	}
	return &env, nil
}

// call como do, pero success=false también es error.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	env, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if !env.ok() {
		return &domain.RemoteError{Status: http.StatusOK, Messages: env.Message.Content}
	}
	if out == nil || !env.hasData() {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("backend: decodificar data de %s: %w", path, err)
	}
	return nil
}

// routeOf reemplaza los segmentos variables por "{}" para nombrar el span sin cardinalidad alta.
func routeOf(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if p[0] >= '0' && p[0] <= '9' {
			parts[i] = "{}"
		}
		if i > 0 && (parts[i-1] == "dni" || parts[i-1] == "code" || parts[i-1] == "historial") {
			parts[i] = "{}"
		}
	}
	return strings.Join(parts, "/")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func pathEscape(s string) string { return url.PathEscape(strings.TrimSpace(s)) }

func decodeData(env *envelope, out any) error {
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("backend: decodificar data: %w", err)
	}
	return nil
}

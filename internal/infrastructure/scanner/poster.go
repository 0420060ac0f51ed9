package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
)

// Poster envía cada código leído al endpoint de alta de ítems del borrador.
type Poster struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewPoster construye el poster para el borrador draftID del servicio en apiBaseURL.
func NewPoster(apiBaseURL, draftID, token string, timeout time.Duration) *Poster {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Poster{
		endpoint:   apiBaseURL + "/loan-drafts/" + url.PathEscape(draftID) + "/items",
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Post agrega el código al borrador. Un rechazo del servicio se devuelve con su código y mensaje.
func (p *Poster) Post(ctx context.Context, code string) (*dto.DraftResponse, error) {
	body, err := json.Marshal(dto.AddItemRequest{Code: code})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("scanner: armar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scanner: enviar %s: %w", code, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("scanner: leer respuesta: %w", err)
	}

	if resp.StatusCode >= 300 {
		var e dto.ErrorResponse
		if json.Unmarshal(raw, &e) == nil && e.Code != "" {
			return nil, fmt.Errorf("scanner: %s rechazado (%d %s): %s", code, resp.StatusCode, e.Code, e.Message)
		}
		return nil, fmt.Errorf("scanner: %s rechazado con estado %d", code, resp.StatusCode)
	}
	var out dto.DraftResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("scanner: decodificar borrador: %w", err)
	}
	return &out, nil
}

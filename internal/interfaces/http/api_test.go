package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/prestamos-api/internal/application/lending"
	"github.com/jhoicas/prestamos-api/internal/application/ports"
	"github.com/jhoicas/prestamos-api/internal/application/report"
	"github.com/jhoicas/prestamos-api/internal/application/store"
	"github.com/jhoicas/prestamos-api/internal/domain/loan"
	"github.com/jhoicas/prestamos-api/internal/infrastructure/backend"
	"github.com/jhoicas/prestamos-api/internal/infrastructure/pdf"
	"github.com/jhoicas/prestamos-api/internal/infrastructure/xlsx"
	apphttp "github.com/jhoicas/prestamos-api/internal/interfaces/http"
	"github.com/jhoicas/prestamos-api/pkg/config"
	pkgjwt "github.com/jhoicas/prestamos-api/pkg/jwt"
	"github.com/jhoicas/prestamos-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles: sesiones y vistas en memoria, backend institucional con httptest
// ──────────────────────────────────────────────────────────────────────────────

type memSessions struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memSessions) put(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

func (m *memSessions) get(key string, out any) (bool, error) {
	m.mu.Lock()
	b, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (m *memSessions) del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

func (m *memSessions) SaveDraft(_ context.Context, d *loan.Draft) error { return m.put("d:"+d.ID, d) }
func (m *memSessions) GetDraft(_ context.Context, id string) (*loan.Draft, error) {
	var d loan.Draft
	if ok, err := m.get("d:"+id, &d); !ok || err != nil {
		return nil, err
	}
	return &d, nil
}
func (m *memSessions) DeleteDraft(_ context.Context, id string) error { m.del("d:" + id); return nil }
func (m *memSessions) SaveReturnSession(_ context.Context, s *loan.ReturnSession) error {
	return m.put("r:"+s.ID, s)
}
func (m *memSessions) GetReturnSession(_ context.Context, id string) (*loan.ReturnSession, error) {
	var s loan.ReturnSession
	if ok, err := m.get("r:"+id, &s); !ok || err != nil {
		return nil, err
	}
	return &s, nil
}
func (m *memSessions) DeleteReturnSession(_ context.Context, id string) error {
	m.del("r:" + id)
	return nil
}

type memViews struct {
	mu    sync.Mutex
	views map[string]ports.LoanQuery
}

func (m *memViews) Get(_ context.Context, op string) (*ports.LoanQuery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.views[op]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (m *memViews) Save(_ context.Context, op string, q ports.LoanQuery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views[op] = q
	return nil
}

// fakeBackend registra lo que recibe el backend institucional.
type fakeBackend struct {
	mu       sync.Mutex
	auth     []string
	creates  []map[string]any
	returns  []map[string]any
	queries  []string
	patched  []string
	rejectBL bool
}

func (b *fakeBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
	record := func(r *http.Request) {
		b.mu.Lock()
		b.auth = append(b.auth, r.Header.Get("Authorization"))
		b.mu.Unlock()
	}
	mux.HandleFunc("GET /persons/dni/45678912", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		write(w, 200, `{"success":true,"data":{"id":7,"dni":"45678912","firstName":"Ana","lastName":"Quispe","type":"ESTUDIANTES"}}`)
	})
	mux.HandleFunc("GET /persons/7", func(w http.ResponseWriter, r *http.Request) {
		write(w, 200, `{"success":true,"data":{"id":7,"dni":"45678912","firstName":"Ana","type":"ESTUDIANTES","defaulter":false}}`)
	})
	mux.HandleFunc("GET /items/code/TEC-001", func(w http.ResponseWriter, r *http.Request) {
		write(w, 200, `{"success":true,"data":{"id":10,"code":"TEC-001","name":"Proyector","stock":3,"conditionId":2,"availableForLoan":true,"value":"1200"}}`)
	})
	mux.HandleFunc("GET /items/10", func(w http.ResponseWriter, r *http.Request) {
		write(w, 200, `{"success":true,"data":{"id":10,"code":"TEC-001","name":"Proyector","stock":3,"conditionId":2,"availableForLoan":true,"value":"1200"}}`)
	})
	mux.HandleFunc("PATCH /items/10/condition", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.patched = append(b.patched, string(raw))
		b.mu.Unlock()
		write(w, 200, `{"success":true}`)
	})
	mux.HandleFunc("GET /conditions", func(w http.ResponseWriter, r *http.Request) {
		write(w, 200, `{"success":true,"data":[{"id":1,"name":"Bueno"},{"id":2,"name":"Regular"}]}`)
	})
	mux.HandleFunc("POST /loans", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		b.mu.Lock()
		b.creates = append(b.creates, body)
		reject := b.rejectBL && body["blockBlackListed"] == true
		b.mu.Unlock()
		if reject {
			write(w, 200, `{"success":false,"message":{"content":["La persona se encuentra en la lista negra"]}}`)
			return
		}
		write(w, 201, `{"success":true,"data":{"id":501,"code":"PR-0501","status":"PENDING"}}`)
	})
	mux.HandleFunc("GET /loans", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.queries = append(b.queries, r.URL.RawQuery)
		b.mu.Unlock()
		write(w, 200, `{"success":true,"data":{"records":[{"id":100,"code":"PR-0100","status":"DELIVERED"}],"total":1,"limit":10,"page":1,"pages":1}}`)
	})
	mux.HandleFunc("GET /loans/100", func(w http.ResponseWriter, r *http.Request) {
		write(w, 200, `{"success":true,"data":{"id":100,"code":"PR-0100","status":"DELIVERED","requestorId":7,
			"loanDetails":[{"id":1,"itemId":10,"exitConditionId":1,"quantity":2}]}}`)
	})
	mux.HandleFunc("POST /loans/return", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		b.mu.Lock()
		b.returns = append(b.returns, body)
		b.mu.Unlock()
		write(w, 200, `{"success":true}`)
	})
	return mux
}

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "prestamos-api-test"
	testExpMin    = 60
)

type apiHarness struct {
	app     *fiber.App
	backend *fakeBackend
	token   string
}

func newAPI(t *testing.T) *apiHarness {
	t.Helper()
	fb := &fakeBackend{}
	srv := httptest.NewServer(fb.handler(t))
	t.Cleanup(srv.Close)

	log := logger.Nop()
	lima := time.FixedZone("PET", -5*3600)
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, lima)
	clock := func() time.Time { return now }

	client := backend.NewClient(config.BackendConfig{BaseURL: srv.URL, Timeout: 2 * time.Second}, log)
	loans := backend.NewLoanGateway(client)
	persons := backend.NewPersonDirectory(client)
	items := backend.NewInventoryCatalog(client)
	conditions := backend.NewConditionCatalog(client)
	sessions := &memSessions{data: map[string][]byte{}}

	builder := lending.NewLoanBuilder(items, log)
	submitter := lending.NewSubmitter(loans, builder, nil, clock, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		DraftUC:   lending.NewDraftUseCase(sessions, lending.NewRequestorValidator(persons, log), items, conditions, submitter, clock, log),
		ReturnUC:  lending.NewReturnUseCase(sessions, loans, items, persons, clock, log),
		LoanList:  store.NewLoanListStore(loans, &memViews{views: map[string]ports.LoanQuery{}}, log),
		ReportsUC: report.NewReportUseCase(loans, persons, items, conditions, pdf.NewActaGenerator("Instituto"), xlsx.NewHistoryExporter(), clock, log),
		JWTSecret: testJWTSecret,
	})

	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, "operador", testIssuer, testExpMin)
	require.NoError(t, err)
	return &apiHarness{app: app, backend: fb, token: tok}
}

func (h *apiHarness) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+h.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

// readyDraft borrador listo para enviar con un proyector en condición 1.
func (h *apiHarness) readyDraft(t *testing.T) string {
	t.Helper()
	status, d := h.do(t, http.MethodPost, "/api/loan-drafts", map[string]any{"mode": "manual"})
	require.Equal(t, http.StatusCreated, status, d)
	id := d["id"].(string)

	status, d = h.do(t, http.MethodPost, "/api/loan-drafts/"+id+"/requestor", map[string]any{"dni": "45678912"})
	require.Equal(t, http.StatusOK, status, d)
	require.Equal(t, true, d["requestor"].(map[string]any)["validated"])

	status, _ = h.do(t, http.MethodPatch, "/api/loan-drafts/"+id, map[string]any{
		"reason":                "Clase de física",
		"scheduled_return_date": "2026-10-15T13:00:00-05:00",
	})
	require.Equal(t, http.StatusOK, status)

	status, d = h.do(t, http.MethodPost, "/api/loan-drafts/"+id+"/items", map[string]any{"code": "TEC-001"})
	require.Equal(t, http.StatusOK, status, d)
	status, _ = h.do(t, http.MethodPatch, "/api/loan-drafts/"+id+"/items/TEC-001", map[string]any{"exit_condition_id": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, status)
	return id
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_SinToken(t *testing.T) {
	h := newAPI(t)
	resp, err := h.app.Test(httptest.NewRequest(http.MethodGet, "/api/loans", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_PrestamoSimple(t *testing.T) {
	h := newAPI(t)
	id := h.readyDraft(t)

	status, out := h.do(t, http.MethodPost, "/api/loan-drafts/"+id+"/submit", nil)
	require.Equal(t, http.StatusCreated, status, out)
	assert.Equal(t, "/loans", out["next"])
	assert.Equal(t, "PR-0501", out["loan"].(map[string]any)["code"])

	require.Len(t, h.backend.creates, 1)
	assert.Equal(t, true, h.backend.creates[0]["blockBlackListed"])
	assert.Equal(t, []string{`{"conditionId":1}`}, h.backend.patched)
	for _, a := range h.backend.auth {
		assert.Equal(t, "Bearer "+h.token, a, "el token del operador se reenvía al backend")
	}

	status, _ = h.do(t, http.MethodGet, "/api/loan-drafts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_ListaNegraRequiereConfirmacion(t *testing.T) {
	h := newAPI(t)
	h.backend.rejectBL = true
	id := h.readyDraft(t)

	status, out := h.do(t, http.MethodPost, "/api/loan-drafts/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, true, out["requires_confirmation"])
	assert.Contains(t, out["prompt"].(map[string]any)["message"], "lista negra")

	status, out = h.do(t, http.MethodPost, "/api/loan-drafts/"+id+"/override", nil)
	require.Equal(t, http.StatusCreated, status, out)
	require.Len(t, h.backend.creates, 2)
	assert.Equal(t, false, h.backend.creates[1]["blockBlackListed"])

	status, out = h.do(t, http.MethodPost, "/api/loan-drafts/"+id+"/override", nil)
	assert.Equal(t, http.StatusNotFound, status, out)
}

func TestAPI_FormularioIncompletoDevuelveCampos(t *testing.T) {
	h := newAPI(t)
	_, d := h.do(t, http.MethodPost, "/api/loan-drafts", nil)
	id := d["id"].(string)

	status, out := h.do(t, http.MethodPost, "/api/loan-drafts/"+id+"/submit", nil)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", out["code"])
	var fields []string
	for _, f := range out["fields"].([]any) {
		fields = append(fields, f.(map[string]any)["field"].(string))
	}
	assert.Contains(t, fields, "reason")
	assert.Contains(t, fields, "items")
	assert.Empty(t, h.backend.creates)
}

func TestAPI_ListadoRecuerdaLaVista(t *testing.T) {
	h := newAPI(t)

	status, out := h.do(t, http.MethodGet, "/api/loans?status=delivered&limit=5", nil)
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, "DELIVERED", out["status"])
	assert.Len(t, out["items"], 1)

	status, out = h.do(t, http.MethodGet, "/api/loans", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "DELIVERED", out["status"], "sin parámetros se usa la vista guardada")
	assert.Equal(t, float64(5), out["page"].(map[string]any)["limit"])

	require.Len(t, h.backend.queries, 2)
	assert.Contains(t, h.backend.queries[1], "status=DELIVERED")
	assert.Contains(t, h.backend.queries[1], "limit=5")

	status, _ = h.do(t, http.MethodGet, "/api/loans?page=abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_Devolucion(t *testing.T) {
	h := newAPI(t)

	status, s := h.do(t, http.MethodPost, "/api/return-sessions", map[string]any{"loan_id": 100})
	require.Equal(t, http.StatusCreated, status, s)
	id := s["id"].(string)
	assert.Equal(t, "Proyector", s["current"].(map[string]any)["item_name"])

	status, out := h.do(t, http.MethodPost, "/api/return-sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusBadRequest, status, out)
	first := out["fields"].([]any)[0].(map[string]any)
	assert.Equal(t, "items[0].return_condition_id", first["field"])
	assert.Contains(t, first["message"], "item 1")

	status, _ = h.do(t, http.MethodPatch, "/api/return-sessions/"+id+"/items/0", map[string]any{
		"return_condition_id": 2, "return_observations": "rayado", "quantity_input": "1", "blur": true,
	})
	require.Equal(t, http.StatusOK, status)

	status, out = h.do(t, http.MethodPost, "/api/return-sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, "/loans", out["next"])

	require.Len(t, h.backend.returns, 1)
	items := h.backend.returns[0]["returnedItems"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(1), items[0].(map[string]any)["quantity"])

	status, _ = h.do(t, http.MethodPost, "/api/return-sessions/"+id+"/submit", nil)
	assert.Equal(t, http.StatusConflict, status)
}

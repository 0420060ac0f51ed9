package lending_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jhoicas/prestamos-api/internal/application/ports"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/loan"
)

var lima = time.FixedZone("PET", -5*3600)

// fakeSessions guarda las sesiones serializadas, igual que el adaptador de Redis.
type fakeSessions struct {
	mu      sync.Mutex
	drafts  map[string][]byte
	returns map[string][]byte
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{drafts: map[string][]byte{}, returns: map[string][]byte{}}
}

func (f *fakeSessions) SaveDraft(_ context.Context, d *loan.Draft) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts[d.ID] = b
	return nil
}

func (f *fakeSessions) GetDraft(_ context.Context, id string) (*loan.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.drafts[id]
	if !ok {
		return nil, nil
	}
	var d loan.Draft
	return &d, json.Unmarshal(b, &d)
}

func (f *fakeSessions) DeleteDraft(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.drafts, id)
	return nil
}

func (f *fakeSessions) SaveReturnSession(_ context.Context, s *loan.ReturnSession) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.returns[s.ID] = b
	return nil
}

func (f *fakeSessions) GetReturnSession(_ context.Context, id string) (*loan.ReturnSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.returns[id]
	if !ok {
		return nil, nil
	}
	var s loan.ReturnSession
	return &s, json.Unmarshal(b, &s)
}

func (f *fakeSessions) DeleteReturnSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.returns, id)
	return nil
}

type defaulterCall struct {
	ID        int64
	Defaulter bool
}

type fakePersons struct {
	mu      sync.Mutex
	byDNI   map[string]*entity.Person
	byID    map[int64]*entity.Person
	findErr error
	calls   []defaulterCall
	// entered/release permiten retener SetDefaulter para probar la concurrencia.
	entered chan struct{}
	release chan struct{}
}

func newFakePersons(people ...*entity.Person) *fakePersons {
	f := &fakePersons{byDNI: map[string]*entity.Person{}, byID: map[int64]*entity.Person{}}
	for _, p := range people {
		f.byDNI[p.DNI] = p
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakePersons) FindByDNI(_ context.Context, dni string) (*entity.Person, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.byDNI[dni], nil
}

func (f *fakePersons) GetByID(_ context.Context, id int64) (*entity.Person, error) {
	return f.byID[id], nil
}

func (f *fakePersons) SetDefaulter(_ context.Context, id int64, defaulter bool) error {
	f.mu.Lock()
	f.calls = append(f.calls, defaulterCall{ID: id, Defaulter: defaulter})
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	return nil
}

func (f *fakePersons) defaulterCalls() []defaulterCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]defaulterCall(nil), f.calls...)
}

type conditionUpdate struct {
	ItemID      int64
	ConditionID int64
}

type fakeItems struct {
	mu      sync.Mutex
	byCode  map[string]entity.Item
	byID    map[int64]entity.Item
	updates []conditionUpdate
	fail    func(id, conditionID int64) error
}

func newFakeItems(items ...entity.Item) *fakeItems {
	f := &fakeItems{byCode: map[string]entity.Item{}, byID: map[int64]entity.Item{}}
	for _, it := range items {
		f.byCode[it.Code] = it
		f.byID[it.ID] = it
	}
	return f
}

func (f *fakeItems) GetByCode(_ context.Context, code string) (*entity.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.byCode[code]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (f *fakeItems) GetByID(_ context.Context, id int64) (*entity.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (f *fakeItems) UpdateCondition(_ context.Context, id, conditionID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, conditionUpdate{ItemID: id, ConditionID: conditionID})
	if f.fail != nil {
		if err := f.fail(id, conditionID); err != nil {
			return err
		}
	}
	if it, ok := f.byID[id]; ok {
		it.ConditionID = conditionID
		f.byID[id] = it
	}
	return nil
}

func (f *fakeItems) setStock(id int64, stock int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it := f.byID[id]
	it.Stock = stock
	f.byID[id] = it
}

type fakeConditions struct {
	list []entity.Condition
	err  error
}

func (f *fakeConditions) List(context.Context) ([]entity.Condition, error) {
	return f.list, f.err
}

// createResult respuesta programada para una llamada a Create.
type createResult struct {
	out *ports.CreateOutcome
	err error
}

type fakeLoans struct {
	mu        sync.Mutex
	loans     map[int64]*entity.Loan
	results   []createResult
	creates   []loan.CreateRequest
	returns   []loan.ReturnRequest
	returnErr error
}

func newFakeLoans(loans ...*entity.Loan) *fakeLoans {
	f := &fakeLoans{loans: map[int64]*entity.Loan{}}
	for _, l := range loans {
		f.loans[l.ID] = l
	}
	return f
}

func (f *fakeLoans) List(context.Context, ports.LoanQuery) (*ports.LoanPage, error) {
	return &ports.LoanPage{}, nil
}

func (f *fakeLoans) Get(_ context.Context, id int64) (*entity.Loan, error) {
	return f.loans[id], nil
}

func (f *fakeLoans) Create(_ context.Context, req loan.CreateRequest) (*ports.CreateOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, req)
	if len(f.results) == 0 {
		return nil, errors.New("fakeLoans: sin respuesta programada")
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r.out, r.err
}

func (f *fakeLoans) Return(_ context.Context, req loan.ReturnRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.returns = append(f.returns, req)
	return f.returnErr
}

func (f *fakeLoans) HistoryByDNI(context.Context, string) ([]entity.Loan, error) {
	return nil, nil
}

func created(id int64, code string) createResult {
	return createResult{out: &ports.CreateOutcome{Success: true, Loan: &entity.Loan{ID: id, Code: code, Status: entity.LoanStatusPending}}}
}

func rejected(msgs ...string) createResult {
	return createResult{out: &ports.CreateOutcome{Success: false, Messages: msgs}}
}

type fakeAudit struct {
	mu      sync.Mutex
	records []*entity.OverrideAudit
}

func (f *fakeAudit) Record(_ context.Context, a *entity.OverrideAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, a)
	return nil
}

func (f *fakeAudit) ListByRequestor(_ context.Context, requestorID int64, _ int) ([]*entity.OverrideAudit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.OverrideAudit
	for _, r := range f.records {
		if r.RequestorID == requestorID {
			out = append(out, r)
		}
	}
	return out, nil
}

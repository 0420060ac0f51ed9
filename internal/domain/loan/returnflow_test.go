package loan_test

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/loan"
)

func deliveredLoan() *entity.Loan {
	return &entity.Loan{
		ID:          100,
		Code:        "PR-0100",
		Status:      entity.LoanStatusDelivered,
		RequestorID: 7,
		Details: []entity.LoanDetail{
			{ID: 1, LoanID: 100, ItemID: 10, ExitConditionID: 1, Quantity: 2},
			{ID: 2, LoanID: 100, ItemID: 11, ExitConditionID: 1, Quantity: 5},
		},
	}
}

func newFlow(t *testing.T) *loan.ReturnFlow {
	t.Helper()
	f, err := loan.NewReturnFlow(deliveredLoan(), map[int64]string{10: "Proyector", 11: "Cable HDMI"})
	require.NoError(t, err)
	return f
}

func TestNewReturnFlow_EstadoInicial(t *testing.T) {
	f := newFlow(t)
	assert.Equal(t, loan.StateReviewing, f.State)
	assert.Equal(t, 0, f.Index)
	assert.Equal(t, "Proyector", f.Current().ItemName)
	assert.Equal(t, 2, f.Current().Quantity, "la cantidad parte de la prestada")
}

func TestNewReturnFlow_RequiereEntregado(t *testing.T) {
	l := deliveredLoan()
	l.Status = entity.LoanStatusPending
	_, err := loan.NewReturnFlow(l, nil)
	assert.ErrorIs(t, err, domain.ErrLoanNotDelivered)
}

func TestNewReturnFlow_DatosDeDevolucionParciales(t *testing.T) {
	l := deliveredLoan()
	cond := int64(2)
	l.Details[1].ReturnConditionID = &cond

	_, err := loan.NewReturnFlow(l, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "item 2")
}

func TestNewReturnFlow_DatosCompletosSeCargan(t *testing.T) {
	l := deliveredLoan()
	cond, obs := int64(2), "rayado"
	l.Details[0].ReturnConditionID = &cond
	l.Details[0].ReturnObservations = &obs

	f, err := loan.NewReturnFlow(l, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.Entries[0].ReturnConditionID)
	assert.Equal(t, "rayado", f.Entries[0].ReturnObservations)
}

func TestReturnFlow_NavegacionSinVuelta(t *testing.T) {
	f := newFlow(t)
	f.Previous()
	assert.Equal(t, 0, f.Index)
	f.Next()
	assert.Equal(t, 1, f.Index)
	f.Next()
	assert.Equal(t, 1, f.Index, "no hay vuelta al inicio")
	f.Previous()
	assert.Equal(t, 0, f.Index)
}

func TestReturnFlow_CantidadAlEscribirYAlSalir(t *testing.T) {
	f := newFlow(t)

	require.NoError(t, f.TypeQuantity(0, "1"))
	assert.Equal(t, 1, f.Entries[0].Quantity)

	require.NoError(t, f.TypeQuantity(0, "9"))
	assert.Equal(t, 1, f.Entries[0].Quantity, "fuera de rango al escribir se ignora")
	require.NoError(t, f.TypeQuantity(0, "abc"))
	assert.Equal(t, 1, f.Entries[0].Quantity)

	require.NoError(t, f.BlurQuantity(0, "9"))
	assert.Equal(t, 2, f.Entries[0].Quantity, "al salir se ajusta a la cantidad prestada")
	assert.Equal(t, "2", f.Entries[0].QuantityInput)

	require.NoError(t, f.BlurQuantity(0, "-3"))
	assert.Equal(t, 1, f.Entries[0].Quantity)

	assert.ErrorIs(t, f.TypeQuantity(5, "1"), domain.ErrInvalidInput)
}

func TestReturnFlow_BlurNuncaExcedeLoPrestado(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		orig := rapid.IntRange(1, 1000).Draw(t, "prestado")
		input := rapid.IntRange(-5000, 5000).Draw(t, "input")
		l := deliveredLoan()
		l.Details = l.Details[:1]
		l.Details[0].Quantity = orig

		f, err := loan.NewReturnFlow(l, nil)
		if err != nil {
			t.Fatal(err)
		}
		_ = f.BlurQuantity(0, strconv.Itoa(input))
		q := f.Entries[0].Quantity
		if q < 1 || q > orig {
			t.Fatalf("cantidad %d fuera de [1,%d]", q, orig)
		}
	})
}

func fill(t *testing.T, f *loan.ReturnFlow, i int) {
	t.Helper()
	require.NoError(t, f.SetCondition(i, 1))
	require.NoError(t, f.SetObservations(i, "sin novedad"))
}

func TestReturnFlow_EscenarioC_SegundoItemIncompleto(t *testing.T) {
	f := newFlow(t)
	fill(t, f, 0)
	f.Next()

	_, err := f.BeginSubmit(at(10, 0))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "item 2")
	assert.NotContains(t, err.Error(), "item 1")
	assert.Equal(t, loan.StateReviewing, f.State)
	assert.Equal(t, 1, f.Index)
}

func TestReturnFlow_ObservacionesYNotasLargas(t *testing.T) {
	f := newFlow(t)
	fill(t, f, 0)
	fill(t, f, 1)
	require.NoError(t, f.SetObservations(1, strings.Repeat("x", 251)))
	f.Notes = strings.Repeat("n", 251)

	err := f.Validate()
	var v *domain.ValidationError
	require.True(t, errors.As(err, &v))
	require.Len(t, v.Fields, 2)
	assert.Equal(t, "items[1].return_observations", v.Fields[0].Field)
	assert.Equal(t, "notes", v.Fields[1].Field)
}

func TestReturnFlow_EnvioExitoso(t *testing.T) {
	f := newFlow(t)
	fill(t, f, 0)
	fill(t, f, 1)
	require.NoError(t, f.BlurQuantity(1, "3"))
	f.Notes = "  devuelto en mesa de partes "

	now := at(16, 45)
	req, err := f.BeginSubmit(now)
	require.NoError(t, err)
	assert.Equal(t, loan.StateSubmitting, f.State)
	assert.Equal(t, int64(100), req.LoanID)
	assert.Equal(t, now, req.ActualReturnDate)
	assert.Equal(t, "devuelto en mesa de partes", req.Notes)
	assert.Equal(t, []loan.ReturnedItem{
		{LoanDetailID: 1, ReturnConditionID: 1, ReturnObservations: "sin novedad", Quantity: 2},
		{LoanDetailID: 2, ReturnConditionID: 1, ReturnObservations: "sin novedad", Quantity: 3},
	}, req.Items)

	_, err = f.BeginSubmit(now)
	assert.ErrorIs(t, err, domain.ErrSubmissionInFlight)

	f.Complete(nil)
	assert.Equal(t, loan.StateDone, f.State)
	_, err = f.BeginSubmit(now)
	assert.ErrorIs(t, err, domain.ErrFlowClosed)
	assert.ErrorIs(t, f.SetCondition(0, 2), domain.ErrFlowClosed)
}

func TestReturnFlow_EnvioFallidoVuelveARevision(t *testing.T) {
	f := newFlow(t)
	fill(t, f, 0)
	fill(t, f, 1)
	f.Next()

	_, err := f.BeginSubmit(at(10, 0))
	require.NoError(t, err)
	f.Complete(errors.New("timeout"))

	assert.Equal(t, loan.StateReviewing, f.State)
	assert.Equal(t, 1, f.Index)
}

func TestDefaulterControl(t *testing.T) {
	c := loan.DefaulterControl{}
	assert.True(t, c.CanMark())
	assert.False(t, c.CanUnmark())

	c.InFlight = true
	assert.False(t, c.CanMark())

	c = loan.DefaulterControl{Defaulter: true}
	assert.False(t, c.CanMark())
	assert.True(t, c.CanUnmark())
}

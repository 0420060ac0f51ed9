package loan_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/loan"
)

func validDraft(t *testing.T, now time.Time) *loan.Draft {
	t.Helper()
	d := loan.NewDraft("d-1", "op-1", loan.ModeManual, now)
	d.SetRequestor(entity.Person{ID: 7, DNI: "45678912", FirstName: "Ana", LastName: "Quispe", Type: "ESTUDIANTES"})
	d.Reason = "Aula práctica"
	d.ScheduledReturnDate = now.Add(3 * time.Hour)
	_, err := d.Cart.Add(proyector(), conditions)
	require.NoError(t, err)
	_, err = d.Cart.SetQuantity("TEC-001", 2)
	require.NoError(t, err)
	require.NoError(t, d.Cart.SetExitCondition("TEC-001", 1))
	return d
}

func fieldNames(err error) []string {
	var v *domain.ValidationError
	if !errors.As(err, &v) {
		return nil
	}
	out := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		out = append(out, f.Field)
	}
	return out
}

func TestDraft_BuildEscenarioA(t *testing.T) {
	now := at(10, 0)
	d := validDraft(t, now)

	req, err := d.Build(now)
	require.NoError(t, err)

	assert.True(t, req.BlockBlacklisted)
	assert.Equal(t, int64(7), req.RequestorID)
	assert.Equal(t, "Aula práctica", req.Reason)
	assert.Equal(t, []loan.DetailRequest{{ItemID: 10, ExitConditionID: 1, ExitObservations: "", Quantity: 2}}, req.Details)
}

func TestDraft_NuevoBorradorUsaFechaSugerida(t *testing.T) {
	now := at(22, 30)
	d := loan.NewDraft("d", "op", "otro", now)
	assert.Equal(t, loan.ModeManual, d.Mode)
	assert.Equal(t, now.Add(2*time.Hour), d.ScheduledReturnDate)
}

func TestDraft_ValidateFormularioVacio(t *testing.T) {
	now := at(10, 0)
	d := loan.NewDraft("d", "op", loan.ModeManual, now)

	err := d.Validate(now)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ElementsMatch(t, []string{"requestor_id", "requestor_dni", "reason", "items"}, fieldNames(err))
}

func TestDraft_ValidateLongitudes(t *testing.T) {
	now := at(10, 0)
	d := validDraft(t, now)
	d.Reason = strings.Repeat("a", 251)
	d.Notes = strings.Repeat("b", 251)
	d.ExternalLocation = strings.Repeat("c", 251)

	assert.ElementsMatch(t, []string{"reason", "notes", "external_location"}, fieldNames(d.Validate(now)))
}

func TestDraft_FechaFueraDeVentana(t *testing.T) {
	now := at(10, 0)

	d := validDraft(t, now)
	d.ScheduledReturnDate = now.Add(time.Hour)
	assert.Equal(t, []string{"scheduled_return_date"}, fieldNames(d.Validate(now)))

	d.ScheduledReturnDate = now.AddDate(0, 0, 1)
	assert.Equal(t, []string{"scheduled_return_date"}, fieldNames(d.Validate(now)), "un estudiante devuelve el mismo día")

	d.Requestor.Type = "DOCENTES"
	assert.NoError(t, d.Validate(now), "un docente puede llevarlo hasta 10 días")

	d.ScheduledReturnDate = time.Date(2026, 10, 26, 0, 0, 0, 0, lima)
	assert.Equal(t, []string{"scheduled_return_date"}, fieldNames(d.Validate(now)))
}

func TestDraft_ModoEscaneoUsaSuPropiaVentana(t *testing.T) {
	now := at(10, 0)
	d := validDraft(t, now)
	d.Mode = loan.ModeScan
	d.ScheduledReturnDate = now.AddDate(0, 0, 20)

	assert.NoError(t, d.Validate(now))

	d.ScheduledReturnDate = now.AddDate(0, 0, 29)
	assert.Equal(t, []string{"scheduled_return_date"}, fieldNames(d.Validate(now)))
}

func TestDraft_SolicitanteNoValidado(t *testing.T) {
	now := at(10, 0)
	d := validDraft(t, now)
	d.ClearRequestor("00000000", "no se encontró ninguna persona con este DNI")

	assert.ElementsMatch(t, []string{"requestor_id", "requestor_dni"}, fieldNames(d.Validate(now)))
	assert.Equal(t, "00000000", d.Requestor.DNI)
}

func TestDraft_ItemSinCondicionDeSalida(t *testing.T) {
	now := at(10, 0)
	d := validDraft(t, now)
	d.Cart.Items[0].ExitConditionID = 0

	assert.Equal(t, []string{"items[0].exit_condition_id"}, fieldNames(d.Validate(now)))
}

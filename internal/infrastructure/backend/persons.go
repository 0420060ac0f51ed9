package backend

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/jhoicas/prestamos-api/internal/application/ports"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

// PersonDirectory implementa ports.PersonDirectory sobre /persons.
type PersonDirectory struct {
	c *Client
}

func NewPersonDirectory(c *Client) *PersonDirectory {
	return &PersonDirectory{c: c}
}

var _ ports.PersonDirectory = (*PersonDirectory)(nil)

// FindByDNI (nil, nil) para 404, success=false o data nula; red y 5xx son error.
func (d *PersonDirectory) FindByDNI(ctx context.Context, dni string) (*entity.Person, error) {
	dni = strings.TrimSpace(dni)
	if dni == "" {
		return nil, nil
	}
	return d.get(ctx, "/persons/dni/"+pathEscape(dni))
}

func (d *PersonDirectory) GetByID(ctx context.Context, id int64) (*entity.Person, error) {
	return d.get(ctx, "/persons/"+strconv.FormatInt(id, 10))
}

func (d *PersonDirectory) get(ctx context.Context, path string) (*entity.Person, error) {
	var w *wirePerson
	if err := d.c.call(ctx, http.MethodGet, path, nil, nil, &w); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if w == nil {
		return nil, nil
	}
	return w.toEntity(), nil
}

func (d *PersonDirectory) SetDefaulter(ctx context.Context, id int64, defaulter bool) error {
	body := struct {
		Defaulter bool `json:"defaulter"`
	}{defaulter}
	return d.c.call(ctx, http.MethodPut, "/persons/"+strconv.FormatInt(id, 10)+"/defaulter", nil, body, nil)
}

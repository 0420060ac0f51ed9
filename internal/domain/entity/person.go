package entity

// Tipos de solicitante conocidos. El tipo define la ventana de fecha de devolución.
const (
	PersonTypeTeacher = "DOCENTES"
	PersonTypeStudent = "ESTUDIANTES"
)

// Person solicitante de un préstamo, identificado por DNI.
type Person struct {
	ID        int64
	DNI       string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Type      string
	Defaulter bool // en lista de morosos
}

// FullName nombre completo para mostrar.
func (p Person) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

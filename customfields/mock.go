package customfields

import "time"

// MockAccountID owns the built-in dataset
const MockAccountID int64 = 1330256

var mockTimestamp = time.Date(2025, time.April, 10, 12, 0, 0, 0, time.UTC)

var mockFields = []struct {
	name, typ, description string
	required               bool
}{
	{"Nombre de la Empresa", TypeText, "Nombre oficial de la organización", true},
	{"Teléfono de Contacto", TypeText, "Número de teléfono principal", true},
	{"Email de Contacto", TypeText, "Dirección de correo electrónico principal para contactos", true},
	{"Horario de Atención", TypeLongText, "Horarios de atención al público", false},
	{"Sitio Web", TypeText, "URL del sitio web oficial", false},
	{"Dirección Fiscal", TypeLongText, "Dirección fiscal completa de la empresa", true},
	{"CUIT/RUT", TypeText, "Número de identificación fiscal", true},
	{"Año de Fundación", TypeNumber, "Año en que se fundó la empresa", false},
	{"Descripción de la Empresa", TypeLongText, "Descripción general de la empresa, sus servicios y valores", false},
	{"Redes Sociales", TypeLongText, "Enlaces a perfiles de redes sociales", false},
	{"Personas de Contacto", TypeLongText, "Lista de personas clave de contacto con sus respectivos roles", false},
	{"Política de Devoluciones", TypeLongText, "Política de devoluciones y reembolsos", false},
	{"Preguntas Frecuentes", TypeLongText, "Preguntas frecuentes y sus respuestas", false},
	{"Métodos de Pago", TypeLongText, "Métodos de pago aceptados", false},
	{"Servicios Ofrecidos", TypeLongText, "Lista detallada de servicios que ofrece la empresa", false},
}

// MockFields returns a fresh copy of the built-in field list, ordered.
func MockFields() []Field {
	out := make([]Field, len(mockFields))
	for i, m := range mockFields {
		out[i] = Field{
			ID:          100001 + int64(i),
			AccountID:   MockAccountID,
			Name:        m.name,
			Type:        m.typ,
			Description: m.description,
			Required:    m.required,
			Order:       i + 1,
			CreatedAt:   mockTimestamp,
			UpdatedAt:   mockTimestamp,
		}
	}
	return out
}

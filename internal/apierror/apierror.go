// Package apierror holds the JSON error envelope of the ledger API.
// Detail is for people; POS terminals branch on Codigo, which never changes
// wording. Driver and ledger internals never go in either field.
package apierror

// Error codes. One per class of outcome the caller can act on.
const (
	CodigoValidacion   = "validacion"
	CodigoConflicto    = "conflicto"
	CodigoNoEncontrado = "no_encontrado"
	CodigoReintentar   = "reintentar"
	CodigoCancelado    = "cancelado"
	CodigoInterno      = "interno"
)

type APIError struct {
	Codigo string `json:"codigo,omitempty"`
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Con builds an envelope with a machine-readable code.
func Con(codigo, msg string) *APIError {
	return &APIError{Codigo: codigo, Detail: msg}
}

// ValidationError lists the offending request fields.
type ValidationError struct {
	Codigo string            `json:"codigo"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Codigo: CodigoValidacion, Detail: "Error de validacion", Fields: fields}
}

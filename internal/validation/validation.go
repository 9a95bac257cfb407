// Package validation is a composable set of pure predicates over free-text
// and structured fields. Validators hold no state; each is a deterministic
// function of its input plus a small fixed pattern table.
package validation

// Result is the outcome of a single validator.
type Result struct {
	Valid   bool   `json:"valid"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func ok() Result { return Result{Valid: true} }

func fail(code, message string) Result {
	return Result{Valid: false, Code: code, Message: message}
}

// Validator checks one value.
type Validator func(value string) Result

// Field names a form value and the validators that apply to it.
type Field struct {
	Name       string
	Value      string
	Validators []Validator
}

// FieldError pairs a field name with its first failing result.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// First runs validators in order and returns the first failure, or a valid
// Result when all pass.
func First(value string, validators ...Validator) Result {
	for _, v := range validators {
		if r := v(value); !r.Valid {
			return r
		}
	}
	return ok()
}

// RunAll validates a multi-field form, collecting every failing field in
// declaration order. The first failing validator wins per field.
func RunAll(fields ...Field) []FieldError {
	var errs []FieldError
	for _, f := range fields {
		if r := First(f.Value, f.Validators...); !r.Valid {
			errs = append(errs, FieldError{Field: f.Name, Code: r.Code, Message: r.Message})
		}
	}
	return errs
}

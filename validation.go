package fieldmap

// Validatable lets an argument type add checks that a JSON Schema cannot express.
// Validate runs after the schema check and decoding.
type Validatable interface {
	Validate() error
}

// schemaValidator is satisfied by compiled schemas.
type schemaValidator interface {
	Validate(v any) error
}

// validateAgainstSchema checks a decoded instance and reports violations as ErrValidation.
func validateAgainstSchema(schema schemaValidator, instance any) error {
	if err := schema.Validate(instance); err != nil {
		return &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return nil
}

// validateCustom calls Validate when v implements Validatable.
func validateCustom(v any) error {
	if c, ok := v.(Validatable); ok {
		return c.Validate()
	}
	return nil
}

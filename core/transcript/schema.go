package transcript

import "github.com/invopop/jsonschema"

// MessageSchema describes the native transcript socket payload.
func MessageSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&Message{})
	schema.Title = "Transcript message"
	return schema
}

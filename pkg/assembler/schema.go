package assembler

import (
	"reflect"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/invopop/jsonschema"
)

// Schema creates the JSON Schema of the assembled context.
func Schema() *jsonschema.Schema {
	return generateSchema(common.AssembledContext{})
}

// LegacySchema creates the JSON Schema of the legacy view.
func LegacySchema() *jsonschema.Schema {
	return generateSchema(LegacyContext{})
}

func generateSchema(value any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return reflector.Reflect(reflect.New(t).Interface())
}

package fieldmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v6"
)

// schemaResource names the single resource each compiler holds. It is absolute so the
// compiler never resolves it against the working directory, which would leak into messages.
const schemaResource = "mem:///fieldmap/tool.json"

var errNilSchema = errors.New("schema reflection returned nil")

// reflector inlines nested structs (no $ref or $defs) and forbids unknown properties.
func reflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
}

// generateSchema reflects T into a schema map and compiles it. It runs once per tool.
func generateSchema[T any]() (map[string]any, *validator.Schema, error) {
	typ := reflect.TypeFor[T]()
	reflected := reflector().ReflectFromType(typ)
	if reflected == nil {
		return nil, nil, errNilSchema
	}
	data, err := json.Marshal(reflected)
	if err != nil {
		return nil, nil, err
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(data, &schemaMap); err != nil {
		return nil, nil, err
	}
	enrichSchemaFromStructTags(schemaMap, typ)
	stripSchemaIDs(schemaMap)
	compiled, err := compileRawSchema(schemaMap)
	if err != nil {
		return nil, nil, err
	}
	return schemaMap, compiled, nil
}

// enrichSchemaFromStructTags copies plain `description:"..."` and `enum:"a,b"` struct tags
// onto the matching top-level properties, matched by json name.
func enrichSchemaFromStructTags(schemaMap map[string]any, typ reflect.Type) {
	if typ == nil {
		return
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	props, _ := schemaMap["properties"].(map[string]any)
	if typ.Kind() != reflect.Struct || len(props) == 0 {
		return
	}
	for field := range typ.Fields() {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		if enum := field.Tag.Get("enum"); enum != "" {
			prop["enum"] = splitEnum(enum)
		}
	}
}

func splitEnum(tag string) []any {
	parts := strings.Split(tag, ",")
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// walkSchema calls visit on node and on every object nested in it, at any depth.
func walkSchema(node map[string]any, visit func(map[string]any)) {
	if node == nil {
		return
	}
	visit(node)
	for _, child := range node {
		switch c := child.(type) {
		case map[string]any:
			walkSchema(c, visit)
		case []any:
			for _, item := range c {
				if m, ok := item.(map[string]any); ok {
					walkSchema(m, visit)
				}
			}
		}
	}
}

// stripSchemaIDs drops string-valued id and $id keywords so every schema compiles as the
// same local resource. A property that happens to be named "id" is an object and stays.
func stripSchemaIDs(schemaMap map[string]any) {
	walkSchema(schemaMap, func(node map[string]any) {
		for _, key := range [...]string{"id", "$id"} {
			if _, isString := node[key].(string); isString {
				delete(node, key)
			}
		}
	})
}

// compileRawSchema compiles schemaMap without mutating it. The compiler checks the schema
// against its meta-schema, so malformed keywords are rejected here.
func compileRawSchema(schemaMap map[string]any) (*validator.Schema, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	doc, err := validator.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	c := validator.NewCompiler()
	if err := c.AddResource(schemaResource, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaResource)
}

// decodeInstance parses arguments the way the validator expects them (numbers as json.Number).
func decodeInstance(argsJSON []byte) (any, error) {
	return validator.UnmarshalJSON(bytes.NewReader(argsJSON))
}

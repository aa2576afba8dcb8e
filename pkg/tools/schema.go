package tools

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema строит JSON Schema параметров из Go структуры T.
//
// Описание и обязательность полей берутся из тегов:
//
//	Topic string `json:"topic" jsonschema:"required,description=Presentation topic"`
//
// Схема самодостаточна (без $ref), чтобы её можно было передать в LLM как есть.
func GenerateSchema[T any]() JSONSchema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(&v)

	data, err := json.Marshal(schema)
	if err != nil {
		return JSONSchema{"type": "object"}
	}
	var out JSONSchema
	if err := json.Unmarshal(data, &out); err != nil {
		return JSONSchema{"type": "object"}
	}

	// LLM API не нуждаются в мета-полях
	delete(out, "$schema")
	delete(out, "$id")
	if _, ok := out["properties"]; !ok {
		out["properties"] = map[string]any{}
	}
	return out
}

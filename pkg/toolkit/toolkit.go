// Package toolkit adapts a plain Go function into an MCP protocol.Tool:
// it derives the tool's JSON-Schema input shape from the function's
// argument struct via reflection, and handles argument decoding, the
// ToolContext side channel, and turning a Go return value (or error)
// into a protocol.CallToolResult.
package toolkit

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/server"
)

// Image is a sentinel return type: a handler returning (Image, error)
// gets its result wrapped as image content instead of text.
type Image struct {
	Data     []byte
	MimeType string
}

var (
	toolContextType = reflect.TypeOf((*server.ToolContext)(nil))
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
	imageType       = reflect.TypeOf(Image{})
	callResultType  = reflect.TypeOf((*protocol.CallToolResult)(nil))
)

// Definition is the metadata half of a tool; New pairs it with a handler
// function to build the protocol.Tool and server.ToolHandler together.
type Definition struct {
	Name        string
	Description string
}

// New adapts fn into a protocol.Tool and matching server.ToolHandler.
// fn must have the shape:
//
//	func(ctx *server.ToolContext, args ArgsStruct) (Result, error)
//
// where ArgsStruct is a struct whose exported fields (via `json` tags)
// become the tool's input schema, and Result is either a string, any
// JSON-marshalable value (wrapped as text), an Image (wrapped as image
// content), or *protocol.CallToolResult (returned as-is, for handlers
// that need full control over isError/content).
func New(def Definition, fn any) (protocol.Tool, server.ToolHandler, error) {
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()

	if fnType.Kind() != reflect.Func {
		return protocol.Tool{}, nil, fmt.Errorf("toolkit: %s: not a function", def.Name)
	}
	if fnType.NumIn() != 2 || fnType.In(0) != toolContextType {
		return protocol.Tool{}, nil, fmt.Errorf("toolkit: %s: must take (*server.ToolContext, ArgsStruct)", def.Name)
	}
	argsType := fnType.In(1)
	if argsType.Kind() != reflect.Struct {
		return protocol.Tool{}, nil, fmt.Errorf("toolkit: %s: second argument must be a struct", def.Name)
	}
	if fnType.NumOut() != 2 || !fnType.Out(1).Implements(errorType) {
		return protocol.Tool{}, nil, fmt.Errorf("toolkit: %s: must return (Result, error)", def.Name)
	}

	schema, err := structSchema(argsType)
	if err != nil {
		return protocol.Tool{}, nil, fmt.Errorf("toolkit: %s: %w", def.Name, err)
	}

	tool := protocol.Tool{
		Name:        def.Name,
		Description: def.Description,
		InputSchema: schema,
	}

	required := schema.Required

	handler := func(ctx *server.ToolContext, rawArgs map[string]any) (*protocol.CallToolResult, error) {
		for _, name := range required {
			if _, ok := rawArgs[name]; !ok {
				return protocol.NewToolResultError("missing required argument: " + name), nil
			}
		}

		argsVal := reflect.New(argsType)
		if len(rawArgs) > 0 {
			data, err := json.Marshal(rawArgs)
			if err != nil {
				return protocol.NewToolResultError("encoding arguments: " + err.Error()), nil
			}
			if err := json.Unmarshal(data, argsVal.Interface()); err != nil {
				return protocol.NewToolResultError("decoding arguments: " + err.Error()), nil
			}
		}

		out := fnVal.Call([]reflect.Value{reflect.ValueOf(ctx), argsVal.Elem()})
		if errVal := out[1]; !errVal.IsNil() {
			return protocol.NewToolResultError(errVal.Interface().(error).Error()), nil
		}

		return toCallResult(out[0])
	}

	return tool, handler, nil
}

func toCallResult(result reflect.Value) (*protocol.CallToolResult, error) {
	switch {
	case result.Type() == callResultType:
		if result.IsNil() {
			return protocol.NewToolResultText("Done"), nil
		}
		return result.Interface().(*protocol.CallToolResult), nil
	case result.Type() == imageType:
		img := result.Interface().(Image)
		encoded := base64.StdEncoding.EncodeToString(img.Data)
		return protocol.NewToolResultImage(encoded, img.MimeType), nil
	case result.Kind() == reflect.String:
		return protocol.NewToolResultText(result.String()), nil
	default:
		data, err := json.MarshalIndent(result.Interface(), "", "  ")
		if err != nil {
			return protocol.NewToolResultError("encoding result: " + err.Error()), nil
		}
		return protocol.NewToolResultText(string(data)), nil
	}
}

// structSchema builds a JsonSchema object type from a Go struct's
// exported fields. A field is required unless its json tag carries
// "omitempty". An embedded `jsonschema:"description=...,enum=a|b"` tag
// adds schema-only metadata the json tag can't express.
func structSchema(t reflect.Type) (protocol.JsonSchema, error) {
	properties := make(map[string]*protocol.JsonSchema)
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}

		name, omitempty := jsonFieldName(field)
		if name == "-" {
			continue
		}

		fieldSchema, err := fieldSchema(field.Type)
		if err != nil {
			return protocol.JsonSchema{}, fmt.Errorf("field %s: %w", field.Name, err)
		}
		applyJSONSchemaTag(&fieldSchema, field.Tag.Get("jsonschema"))
		properties[name] = &fieldSchema

		if !omitempty {
			required = append(required, name)
		}
	}

	return protocol.NewObjectSchema(properties, required), nil
}

func jsonFieldName(field reflect.StructField) (name string, omitempty bool) {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name, false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = field.Name
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty
}

func fieldSchema(t reflect.Type) (protocol.JsonSchema, error) {
	switch t.Kind() {
	case reflect.String:
		return protocol.JsonSchema{Type: "string"}, nil
	case reflect.Bool:
		return protocol.JsonSchema{Type: "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return protocol.JsonSchema{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return protocol.JsonSchema{Type: "number"}, nil
	case reflect.Slice, reflect.Array:
		item, err := fieldSchema(t.Elem())
		if err != nil {
			return protocol.JsonSchema{}, err
		}
		return protocol.JsonSchema{Type: "array", Items: &item}, nil
	case reflect.Map:
		return protocol.JsonSchema{Type: "object"}, nil
	case reflect.Ptr:
		return fieldSchema(t.Elem())
	case reflect.Struct:
		nested, err := structSchema(t)
		if err != nil {
			return protocol.JsonSchema{}, err
		}
		return nested, nil
	default:
		return protocol.JsonSchema{}, fmt.Errorf("unsupported field kind %s", t.Kind())
	}
}

// applyJSONSchemaTag layers description= and enum=a|b|c onto a schema
// from a `jsonschema:"..."` struct tag.
func applyJSONSchemaTag(schema *protocol.JsonSchema, tag string) {
	if tag == "" {
		return
	}
	last := ""
	for _, part := range strings.Split(tag, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			// A comma inside a description splits it; rejoin the pieces.
			if last == "description" {
				schema.Description += "," + part
			}
			continue
		}
		last = kv[0]
		switch kv[0] {
		case "description":
			schema.Description = kv[1]
		case "enum":
			for _, v := range strings.Split(kv[1], "|") {
				schema.Enum = append(schema.Enum, v)
			}
		case "format":
			schema.Format = kv[1]
		}
	}
}

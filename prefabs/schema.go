package prefabs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

var ErrSchema = errors.New("prefabs: schema violation")

var (
	schemaMu    sync.Mutex
	schemaCache = map[reflect.Type][]byte{}
)

// Schema reflects the JSON schema of a prefab document type.
func Schema(v any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	s := reflector.ReflectFromType(reflect.TypeOf(v))
	s.Version = ""
	return s
}

// SchemaJSON returns the indented schema document for v.
func SchemaJSON(v any) ([]byte, error) {
	t := reflect.TypeOf(v)

	schemaMu.Lock()
	defer schemaMu.Unlock()
	if data, ok := schemaCache[t]; ok {
		return data, nil
	}

	data, err := json.MarshalIndent(Schema(v), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("prefabs: marshal schema for %s: %w", t, err)
	}
	schemaCache[t] = data
	return data, nil
}

// ValidateDocument checks a raw YAML document against the schema of v.
func ValidateDocument(v any, data []byte) error {
	schemaData, err := SchemaJSON(v)
	if err != nil {
		return err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("prefabs: parse document: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaData), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("prefabs: validate document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/creatorbridge/backend/internal/models"
)

// Validator checks deliverable payloads against per-kind JSON Schemas loaded
// at startup. Descriptor validation is a hard reject on campaign creation;
// submission validation is a soft flag on review.
type Validator struct {
	descriptorSchemas map[string]*jsonschema.Schema
	submissionSchemas map[string]*jsonschema.Schema
}

// NewValidator loads all *.json schema files from schemaDir and compiles
// descriptor_schema and submission_schema per deliverable kind.
func NewValidator(schemaDir string) (*Validator, error) {
	entries, err := os.ReadDir(schemaDir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir %q: %w", schemaDir, err)
	}
	descriptorSchemas := make(map[string]*jsonschema.Schema)
	submissionSchemas := make(map[string]*jsonschema.Schema)

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		kind := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		kind = strings.TrimSuffix(kind, ".v1")
		path := filepath.Join(schemaDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", path, err)
		}
		var file struct {
			DescriptorSchema json.RawMessage `json:"descriptor_schema"`
			SubmissionSchema json.RawMessage `json:"submission_schema"`
		}
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse %q: %w", path, err)
		}
		if len(file.DescriptorSchema) == 0 || len(file.SubmissionSchema) == 0 {
			return nil, fmt.Errorf("%q: missing descriptor_schema or submission_schema", path)
		}
		descriptorID := "https://creatorbridge.dev/schemas/" + kind + ".descriptor"
		submissionID := "https://creatorbridge.dev/schemas/" + kind + ".submission"
		descriptorSchemas[kind], err = jsonschema.CompileString(descriptorID, string(file.DescriptorSchema))
		if err != nil {
			return nil, fmt.Errorf("compile descriptor schema %q: %w", kind, err)
		}
		submissionSchemas[kind], err = jsonschema.CompileString(submissionID, string(file.SubmissionSchema))
		if err != nil {
			return nil, fmt.Errorf("compile submission schema %q: %w", kind, err)
		}
	}

	return &Validator{
		descriptorSchemas: descriptorSchemas,
		submissionSchemas: submissionSchemas,
	}, nil
}

// Kinds returns the known deliverable kinds, sorted.
func (v *Validator) Kinds() []string {
	kinds := make([]string, 0, len(v.descriptorSchemas))
	for k := range v.descriptorSchemas {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// ValidateDescriptor hard-rejects a deliverable descriptor payload that does
// not match its kind's schema.
func (v *Validator) ValidateDescriptor(kind string, payload []byte) error {
	return v.validate(v.descriptorSchemas, kind, payload)
}

// ValidateSubmission checks submitted content against the kind's submission
// schema. Callers treat a failure as a non-fatal flag.
func (v *Validator) ValidateSubmission(kind string, payload []byte) error {
	return v.validate(v.submissionSchemas, kind, payload)
}

func (v *Validator) validate(schemas map[string]*jsonschema.Schema, kind string, payload []byte) error {
	schema, ok := schemas[kind]
	if !ok {
		return fmt.Errorf("%w: unknown deliverable kind %q", models.ErrValidation, kind)
	}
	var doc interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", models.ErrValidation, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	return nil
}

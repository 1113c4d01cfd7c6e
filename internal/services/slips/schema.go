package slips

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/payslip-tracker/internal/common"
)

const saveSchemaURL = "mem://payslip/save-request.json"

const saveSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["slip"],
  "properties": {
    "sourceFileName": {"type": "string", "maxLength": 255},
    "fileId": {"type": "string", "pattern": "^[0-9a-f]{64}$"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "method": {"type": "string", "maxLength": 64},
    "placeholder": {"type": "boolean"},
    "slip": {
      "type": "object",
      "required": ["employeeId", "paymentDate", "earnings", "deductions", "netPay"],
      "properties": {
        "companyName": {"type": "string", "maxLength": 255},
        "employeeName": {"type": "string", "maxLength": 255},
        "employeeId": {"type": "string", "pattern": "^[A-Za-z0-9]{1,64}$"},
        "paymentDate": {"$ref": "#/$defs/date"},
        "targetPeriod": {
          "type": "object",
          "properties": {
            "start": {"$ref": "#/$defs/optionalDate"},
            "end": {"$ref": "#/$defs/optionalDate"}
          }
        },
        "attendance": {
          "type": "object",
          "additionalProperties": {"type": "number", "minimum": 0}
        },
        "earnings": {"$ref": "#/$defs/amounts"},
        "deductions": {"$ref": "#/$defs/amounts"},
        "netPay": {"type": "integer"}
      }
    }
  },
  "$defs": {
    "date": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
    "optionalDate": {"type": "string", "pattern": "^([0-9]{4}-[0-9]{2}-[0-9]{2})?$"},
    "amounts": {
      "type": "object",
      "required": ["total"],
      "additionalProperties": {"type": "integer", "minimum": 0}
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func saveRequestSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(saveSchemaURL, bytes.NewReader([]byte(saveSchema))); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(saveSchemaURL)
	})
	return schema, schemaErr
}

// validateSaveRequest checks raw against the save request schema and decodes it.
func validateSaveRequest(raw []byte) (SaveRequest, error) {
	var req SaveRequest

	sch, err := saveRequestSchema()
	if err != nil {
		return req, fmt.Errorf("compile save schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return req, common.NewAppError(common.CodeValidation, "body is not valid JSON", common.ErrValidation)
	}
	if err := sch.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return req, common.NewAppError(common.CodeValidation, schemaMessage(ve), common.ErrValidation)
		}
		return req, common.NewAppError(common.CodeValidation, err.Error(), common.ErrValidation)
	}

	if err := json.Unmarshal(raw, &req); err != nil {
		return req, common.NewAppError(common.CodeValidation, err.Error(), common.ErrValidation)
	}
	return req, nil
}

// schemaMessage flattens the deepest causes into "location: message" pairs.
func schemaMessage(ve *jsonschema.ValidationError) string {
	var msgs []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			msgs = append(msgs, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}

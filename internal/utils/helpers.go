package utils

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/payslip-tracker/internal/pipeline"
)

// ToPBStruct converts any JSON-marshalable value into a protobuf Struct,
// keeping the value's own json field names.
func ToPBStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("to struct: %w", err)
	}
	return out, nil
}

// FromPBStruct decodes s into v through its JSON form.
func FromPBStruct(s *structpb.Struct, v any) error {
	b, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("from struct: %w", err)
	}
	return json.Unmarshal(b, v)
}

func ToPBResult(res pipeline.ExtractionResult) (*structpb.Struct, error) {
	return ToPBStruct(res)
}

func FromPBResult(s *structpb.Struct) (pipeline.ExtractionResult, error) {
	var res pipeline.ExtractionResult
	err := FromPBStruct(s, &res)
	return res, err
}

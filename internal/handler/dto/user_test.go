package dto

import (
	"encoding/json"
	"testing"
)

func TestScalar_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    Scalar
		wantErr bool
	}{
		{`{"duration":30}`, "30", false},
		{`{"duration":"30"}`, "30", false},
		{`{"duration":1.5}`, "1.5", false},
		{`{"duration":null}`, "", false},
		{`{}`, "", false},
		{`{"duration":true}`, "", true},
		{`{"duration":[1]}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var req AddExerciseRequest
			err := json.Unmarshal([]byte(tt.input), &req)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got duration %q", req.Duration)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.Duration != tt.want {
				t.Errorf("duration = %q, want %q", req.Duration, tt.want)
			}
		})
	}
}

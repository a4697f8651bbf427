package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/koopa0/parley/internal/log"
)

func TestDataQueryUnavailableWithoutPool(t *testing.T) {
	tool, err := NewDataQuery(nil, log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	payload, _ := json.Marshal(DataQueryInput{Query: "SELECT 1"})
	res := tool.Call(context.Background(), payload)

	if res.Status != StatusError {
		t.Fatalf("Call without pool = %+v, want error", res)
	}
	if res.Error.Code != ErrCodeUnavailable {
		t.Errorf("code = %s, want %s", res.Error.Code, ErrCodeUnavailable)
	}
}

func TestValidateReadOnly(t *testing.T) {
	tests := []struct {
		name    string
		stmt    string
		wantErr bool
	}{
		{"plain select", "SELECT 1", false},
		{"lower case select", "select count(*) from knowledge_documents", false},
		{"insert", "INSERT INTO t VALUES (1)", true},
		{"delete", "DELETE FROM t", true},
		{"update", "UPDATE t SET a = 1", true},
		{"stacked statements", "SELECT 1; DROP TABLE t", true},
		{"trailing separator", "SELECT 1;", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateReadOnly(tt.stmt)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateReadOnly(%q) error = %v, wantErr %v", tt.stmt, err, tt.wantErr)
			}
		})
	}
}

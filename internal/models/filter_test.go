package models

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseCategoryIDs(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int64
		wantErr bool
	}{
		{name: "sentinel zero", raw: "0", want: []int64{}},
		{name: "empty", raw: "", want: []int64{}},
		{name: "single", raw: "1", want: []int64{1}},
		{name: "multiple with spaces", raw: "1, 3 ,2", want: []int64{1, 3, 2}},
		{name: "duplicates collapse", raw: "2,2,1,2", want: []int64{2, 1}},
		{name: "non numeric", raw: "1,abc", wantErr: true},
		{name: "zero inside list", raw: "1,0", wantErr: true},
		{name: "negative", raw: "-4", wantErr: true},
		{name: "trailing comma", raw: "1,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategoryIDs(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFilter) {
					t.Fatalf("expected ErrInvalidFilter, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCategoryIDs(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

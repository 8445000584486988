package command

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
)

func TestParseSeeds(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []model.Seed
		wantErr string
	}{
		{
			name: "capitalised and lowercase keys",
			in:   `[{"Id":101,"OwnerId":0,"Name":"ZiU-9","Depot":"North"},{"id":"x","ownerId":"7","name":"VAZ","depot":"South"}]`,
			want: []model.Seed{
				{ID: model.NumericID("101"), OwnerID: model.NumericID("0"), Name: "ZiU-9", Depot: "North"},
				{ID: model.TextID("x"), OwnerID: model.TextID("7"), Name: "VAZ", Depot: "South"},
			},
		},
		{
			name: "null falls back to lowercase",
			in:   `[{"Id":null,"id":5,"OwnerId":"o","Name":"A","Depot":"D"}]`,
			want: []model.Seed{{ID: model.NumericID("5"), OwnerID: model.TextID("o"), Name: "A", Depot: "D"}},
		},
		{name: "not an array", in: `{"Id":1}`, wantErr: "The provided JSON must be an array of vehicles."},
		{name: "entry not an object", in: `[{"Id":1,"OwnerId":1,"Name":"A","Depot":"D"}, 3]`, wantErr: "Vehicle #2 is not an object."},
		{name: "missing depot", in: `[{"Id":1,"OwnerId":1,"Name":"A"}]`, wantErr: "Vehicle #1 is missing Id, OwnerId, Name, or Depot."},
		{name: "empty id", in: `[{"Id":"","OwnerId":1,"Name":"A","Depot":"D"}]`, wantErr: "Vehicle #1 is missing Id, OwnerId, Name, or Depot."},
		{name: "empty name does not fall back", in: `[{"Id":1,"OwnerId":1,"Name":"","name":"A","Depot":"D"}]`, wantErr: "Vehicle #1 is missing Id, OwnerId, Name, or Depot."},
		{name: "empty array", in: `[]`, wantErr: "No vehicles found in the provided JSON."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSeeds([]byte(tt.in))
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("ParseSeeds() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSeeds() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseSeeds() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSeedsInvalidJSON(t *testing.T) {
	_, err := ParseSeeds([]byte(`[{`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("ParseSeeds() error = %v, want ValidationError", err)
	}
	if verr.Err == nil {
		t.Error("ValidationError does not wrap the decode error")
	}
}

package reconcile

import (
	"reflect"
	"testing"
)

type goal struct {
	Ref   string
	Title string
}

func keyOf(g goal) string { return g.Ref }

func TestPartition(t *testing.T) {
	tests := []struct {
		name        string
		old         []goal
		incoming    []goal
		wantUpdates []Pair[goal]
		wantInserts []goal
		wantDeletes []goal
	}{
		{
			name:        "empty to one",
			incoming:    []goal{{Title: "Get a job"}},
			wantInserts: []goal{{Title: "Get a job"}},
		},
		{
			name:        "one to empty",
			old:         []goal{{Ref: "G1", Title: "Get a job"}},
			wantDeletes: []goal{{Ref: "G1", Title: "Get a job"}},
		},
		{
			name:        "update insert and delete",
			old:         []goal{{Ref: "G1", Title: "Read"}, {Ref: "G2", Title: "Write"}},
			incoming:    []goal{{Ref: "G2", Title: "Write more"}, {Title: "Count"}, {Ref: "G9", Title: "Imported"}},
			wantUpdates: []Pair[goal]{{Old: goal{Ref: "G2", Title: "Write"}, New: goal{Ref: "G2", Title: "Write more"}}},
			wantInserts: []goal{{Title: "Count"}, {Ref: "G9", Title: "Imported"}},
			wantDeletes: []goal{{Ref: "G1", Title: "Read"}},
		},
		{
			name:        "duplicate incoming key updates once",
			old:         []goal{{Ref: "G1", Title: "Read"}},
			incoming:    []goal{{Ref: "G1", Title: "first"}, {Ref: "G1", Title: "second"}},
			wantUpdates: []Pair[goal]{{Old: goal{Ref: "G1", Title: "Read"}, New: goal{Ref: "G1", Title: "first"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Partition(tt.old, tt.incoming, keyOf)
			if !reflect.DeepEqual(got.Updates, tt.wantUpdates) {
				t.Errorf("Updates = %+v, want %+v", got.Updates, tt.wantUpdates)
			}
			if !reflect.DeepEqual(got.Inserts, tt.wantInserts) {
				t.Errorf("Inserts = %+v, want %+v", got.Inserts, tt.wantInserts)
			}
			if !reflect.DeepEqual(got.Deletes, tt.wantDeletes) {
				t.Errorf("Deletes = %+v, want %+v", got.Deletes, tt.wantDeletes)
			}
		})
	}
}

package diff

import "testing"

func TestClassify_IdenticalSnapshots(t *testing.T) {
	d := New("depreciation", "updatedOn")
	snap := []byte(`{"price":90000,"mileage":45000,"owners":1}`)

	r, err := d.Classify(snap, snap)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !r.Empty() {
		t.Errorf("identical snapshots: %+v; want all-empty", r)
	}
	if d.Material(r) {
		t.Error("identical snapshots classified material")
	}
}

func TestClassify_AddedDeletedUpdated(t *testing.T) {
	d := New()
	oldSnap := []byte(`{"price":90000,"coe":"2030-01","owners":1}`)
	newSnap := []byte(`{"price":88000,"owners":1,"depreciation":12000}`)

	r, err := d.Classify(oldSnap, newSnap)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if _, ok := r.Added["depreciation"]; !ok {
		t.Errorf("Added = %v; want depreciation", r.Added)
	}
	if _, ok := r.Deleted["coe"]; !ok {
		t.Errorf("Deleted = %v; want coe", r.Deleted)
	}
	if v, ok := r.Updated["price"]; !ok || v != float64(88000) {
		t.Errorf("Updated = %v; want price=88000", r.Updated)
	}
	if len(r.Updated) != 1 {
		t.Errorf("Updated has extra keys: %v", r.Updated)
	}
}

func TestMaterial_IgnorableOnlyUpdates(t *testing.T) {
	d := New("depreciation", "updatedOn")
	oldSnap := []byte(`{"price":90000,"depreciation":12000,"updatedOn":"2024-05-01"}`)
	newSnap := []byte(`{"price":90000,"depreciation":11800,"updatedOn":"2024-05-02"}`)

	r, err := d.Classify(oldSnap, newSnap)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if r.Empty() {
		t.Fatal("expected updates to be detected")
	}
	if d.Material(r) {
		t.Error("ignorable-only updates classified material")
	}
}

func TestMaterial_MixedUpdates(t *testing.T) {
	d := New("depreciation", "updatedOn")
	oldSnap := []byte(`{"price":90000,"depreciation":12000}`)
	newSnap := []byte(`{"price":85000,"depreciation":11000}`)

	r, err := d.Classify(oldSnap, newSnap)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !d.Material(r) {
		t.Error("price change alongside ignorable update must be material")
	}
}

func TestMaterial_AdditionsAlwaysCount(t *testing.T) {
	// Even an ignorable key appearing for the first time is an addition.
	d := New("depreciation")
	r, err := d.Classify([]byte(`{"price":1}`), []byte(`{"price":1,"depreciation":5}`))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !d.Material(r) {
		t.Error("addition of ignorable key not classified material")
	}
}

func TestClassify_NestedValuesCompareDeeply(t *testing.T) {
	d := New()
	oldSnap := []byte(`{"specs":{"cc":1998,"bhp":163}}`)
	newSnap := []byte(`{"specs":{"cc":1998,"bhp":180}}`)

	r, err := d.Classify(oldSnap, newSnap)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if _, ok := r.Updated["specs"]; !ok {
		t.Errorf("Updated = %v; want specs flagged", r.Updated)
	}

	same, err := d.Classify(oldSnap, oldSnap)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !same.Empty() {
		t.Errorf("deep-equal nested values flagged: %+v", same)
	}
}

func TestClassify_MalformedJSON(t *testing.T) {
	d := New()
	if _, err := d.Classify([]byte(`{`), []byte(`{}`)); err == nil {
		t.Error("expected error for malformed old snapshot")
	}
	if _, err := d.Classify([]byte(`{}`), []byte(`not json`)); err == nil {
		t.Error("expected error for malformed new snapshot")
	}
}

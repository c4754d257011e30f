package store

import (
	"errors"
	"testing"

	"github.com/dhearn/rollcall/internal/database"
)

func setupStudentTestDB(t *testing.T) *StudentStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStudentStore(db)
}

func TestStudentCRUD(t *testing.T) {
	ss := setupStudentTestDB(t)

	st, err := ss.Create("21CS042", "Asha Verma", "2025A", "CS101", "3", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if st.RollNumber != "21CS042" {
		t.Errorf("roll = %q, want %q", st.RollNumber, "21CS042")
	}
	if st.DeviceID != nil {
		t.Errorf("device_id = %v, want nil", st.DeviceID)
	}

	got, err := ss.GetByRoll("21CS042")
	if err != nil {
		t.Fatalf("get by roll: %v", err)
	}
	if got == nil || got.ID != st.ID {
		t.Fatalf("got %+v, want student %d", got, st.ID)
	}

	dev := "device-abc"
	updated, err := ss.Update(st.ID, "21CS042", "Asha K Verma", "2025A", "CS101", "4", &dev)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Asha K Verma" {
		t.Errorf("name = %q, want %q", updated.Name, "Asha K Verma")
	}
	if updated.DeviceID == nil || *updated.DeviceID != dev {
		t.Errorf("device_id = %v, want %q", updated.DeviceID, dev)
	}

	if err := ss.Delete(st.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = ss.GetByID(st.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted student")
	}
}

func TestStudentDuplicateRoll(t *testing.T) {
	ss := setupStudentTestDB(t)

	if _, err := ss.Create("21CS042", "Asha Verma", "2025A", "CS101", "3", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := ss.Create("21CS042", "Another Student", "2025B", "MA201", "2", nil)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestStudentGetByRollNotFound(t *testing.T) {
	ss := setupStudentTestDB(t)

	got, err := ss.GetByRoll("nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown roll")
	}
}

func TestStudentListOrderedByRoll(t *testing.T) {
	ss := setupStudentTestDB(t)

	for _, roll := range []string{"21CS099", "21CS001", "21CS050"} {
		if _, err := ss.Create(roll, "Student "+roll, "2025A", "CS101", "3", nil); err != nil {
			t.Fatalf("create %s: %v", roll, err)
		}
	}

	students, err := ss.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(students) != 3 {
		t.Fatalf("students = %d, want 3", len(students))
	}
	want := []string{"21CS001", "21CS050", "21CS099"}
	for i, w := range want {
		if students[i].RollNumber != w {
			t.Errorf("students[%d].RollNumber = %q, want %q", i, students[i].RollNumber, w)
		}
	}
}

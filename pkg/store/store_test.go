package store_test

import (
	"testing"
	"time"

	"github.com/thomasrohde/schyntax/pkg/store"
)

func openMemory(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoad(t *testing.T) {
	s := openMemory(t)
	lastRun := time.Date(2021, 6, 15, 9, 0, 0, 0, time.UTC)

	if _, ok, err := s.LoadTask("backup"); err != nil || ok {
		t.Fatalf("LoadTask on empty store = %v, %v", ok, err)
	}

	want := store.TaskState{Name: "backup", Schedule: "h(9)", LastRun: lastRun, LastRunID: "run-1"}
	if err := s.SaveTask(want); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}
	got, ok, err := s.LoadTask("backup")
	if err != nil || !ok {
		t.Fatalf("LoadTask = %v, %v", ok, err)
	}
	if got.Name != want.Name || got.Schedule != want.Schedule || got.LastRunID != want.LastRunID {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if !got.LastRun.Equal(lastRun) {
		t.Errorf("LastRun = %s, want %s", got.LastRun, lastRun)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt was not stamped")
	}
}

func TestListAndDelete(t *testing.T) {
	s := openMemory(t)
	for _, name := range []string{"b", "a", "c"} {
		if err := s.SaveTask(store.TaskState{Name: name, Schedule: "s(0)"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.DeleteTask("b"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTask("missing"); err != nil {
		t.Errorf("deleting a missing task: %v", err)
	}

	tasks, err := s.ListTasks()
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 || tasks[0].Name != "a" || tasks[1].Name != "c" {
		t.Errorf("ListTasks = %+v", tasks)
	}
}

func TestSaveRequiresName(t *testing.T) {
	s := openMemory(t)
	if err := s.SaveTask(store.TaskState{}); err == nil {
		t.Error("expected an error for a nameless task")
	}
}

func TestPersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(store.Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTask(store.TaskState{Name: "nightly", Schedule: "h(2)"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = store.Open(store.Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	st, ok, err := s.LoadTask("nightly")
	if err != nil || !ok || st.Schedule != "h(2)" {
		t.Errorf("LoadTask after reopen = %+v, %v, %v", st, ok, err)
	}
}

func TestOpenRequiresDir(t *testing.T) {
	if _, err := store.Open(store.Options{}); err == nil {
		t.Error("expected an error without a directory")
	}
}

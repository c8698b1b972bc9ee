package foldernode

import (
	"errors"
	"testing"

	"github.com/dalemusser/folderforge/internal/domain/models"
	"github.com/dalemusser/folderforge/internal/testutil"
)

func node(id, tpl, parent, name string, sort int) models.FolderNode {
	n := models.FolderNode{ID: id, TemplateID: tpl, Name: name, SortOrder: sort}
	if parent != "" {
		n.ParentID = models.StringPtr(parent)
	}
	return n
}

func TestStore_InsertAndFetch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, n := range []models.FolderNode{
		node("r", "t1", "", "Root", 0),
		node("b", "t1", "r", "B", 1),
		node("a", "t1", "r", "A", 0),
		node("x", "t2", "", "Other", 0),
	} {
		if _, err := store.InsertFolder(ctx, n); err != nil {
			t.Fatalf("InsertFolder(%s) error = %v", n.ID, err)
		}
	}

	got, err := store.FetchFolders(ctx, "t1")
	if err != nil {
		t.Fatalf("FetchFolders() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for _, n := range got {
		if n.FolderType != models.FolderTypeDefault {
			t.Errorf("%s FolderType = %q, want default", n.ID, n.FolderType)
		}
		if n.NameCI == "" {
			t.Errorf("%s NameCI not set", n.ID)
		}
	}
}

func TestStore_InsertDuplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.InsertFolder(ctx, node("a", "t1", "", "A", 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := store.InsertFolder(ctx, node("a", "t1", "", "A", 0)); err == nil {
		t.Error("duplicate id accepted")
	}
}

func TestStore_UpdateFolder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.InsertFolder(ctx, node("p", "t1", "", "P", 0))
	store.InsertFolder(ctx, node("a", "t1", "p", "A", 0))

	name := "Renamed"
	if err := store.UpdateFolder(ctx, "a", models.FolderPatch{Name: &name, ParentSet: true}); err != nil {
		t.Fatalf("UpdateFolder() error = %v", err)
	}

	got, _ := store.FetchFolders(ctx, "t1")
	for _, n := range got {
		if n.ID != "a" {
			continue
		}
		if n.Name != "Renamed" || n.NameCI != "renamed" {
			t.Errorf("name = %q / %q", n.Name, n.NameCI)
		}
		if n.ParentID != nil {
			t.Errorf("ParentID = %v, want nil (moved to root)", *n.ParentID)
		}
	}

	if err := store.UpdateFolder(ctx, "missing", models.FolderPatch{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing err = %v, want ErrNotFound", err)
	}
}

func TestStore_UpdateFolders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.InsertFolder(ctx, node("a", "t1", "", "A", 0))
	store.InsertFolder(ctx, node("b", "t1", "", "B", 1))

	zero, one := 0, 1
	err := store.UpdateFolders(ctx, []models.FolderUpdate{
		{ID: "a", Patch: models.FolderPatch{SortOrder: &one}},
		{ID: "b", Patch: models.FolderPatch{SortOrder: &zero}},
	})
	if err != nil {
		t.Fatalf("UpdateFolders() error = %v", err)
	}

	got, _ := store.FetchFolders(ctx, "t1")
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("order after swap = %+v", got)
	}
}

func TestStore_DeleteAndTemplates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.InsertFolder(ctx, node("a", "t1", "", "A", 0))
	store.InsertFolder(ctx, node("b", "t1", "", "B", 1))
	store.InsertFolder(ctx, node("c", "t1", "", "C", 2))
	store.InsertFolder(ctx, node("x", "t2", "", "X", 0))

	if err := store.DeleteFolder(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteFolders(ctx, []string{"b", "c"}); err != nil {
		t.Fatal(err)
	}
	got, _ := store.FetchFolders(ctx, "t1")
	if len(got) != 0 {
		t.Errorf("t1 still has %d nodes", len(got))
	}

	templates, err := store.ListTemplates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(templates) != 1 || templates[0].TemplateID != "t2" || templates[0].Folders != 1 {
		t.Errorf("ListTemplates() = %+v", templates)
	}

	n, err := store.DeleteTemplate(ctx, "t2")
	if err != nil || n != 1 {
		t.Errorf("DeleteTemplate() = %d, %v", n, err)
	}
}

func TestStore_GetFolder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.InsertFolder(ctx, node("a", "t1", "", "A", 0))
	got, err := store.GetFolder(ctx, "a")
	if err != nil || got.Name != "A" {
		t.Fatalf("GetFolder() = %+v, %v", got, err)
	}
	if _, err := store.GetFolder(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing err = %v, want ErrNotFound", err)
	}
}

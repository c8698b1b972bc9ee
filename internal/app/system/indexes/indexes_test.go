package indexes

import (
	"errors"
	"testing"

	"github.com/dalemusser/folderforge/internal/app/store/foldernode"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Index creation against a live server is covered by testutil.SetupTestDB,
// which runs EnsureAll for every database-backed test.

func TestCollectionName(t *testing.T) {
	if folderNodes != foldernode.CollectionName {
		t.Errorf("folderNodes = %q, want %q", folderNodes, foldernode.CollectionName)
	}
}

func TestFolderNodeIndexes(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range folderNodeIndexes() {
		if m.Options == nil || m.Options.Name == nil {
			t.Fatal("index without a name")
		}
		if isUnique(m.Options.Unique) {
			t.Errorf("%s: sibling indexes must not be unique", *m.Options.Name)
		}
		keys := m.Keys.(bson.D)
		if keys[0].Key != "template_id" {
			t.Errorf("%s: leading key = %q, want template_id", *m.Options.Name, keys[0].Key)
		}
		sig := keySig(keys)
		if seen[sig] {
			t.Errorf("duplicate key set %s", sig)
		}
		seen[sig] = true
	}
}

func TestKeySig(t *testing.T) {
	got := keySig(bson.D{{Key: "a", Value: 1}, {Key: "b", Value: -1}})
	if got != "a:1, b:-1" {
		t.Errorf("keySig() = %q", got)
	}
}

func TestIsDuplicateKeyErr(t *testing.T) {
	if !isDuplicateKeyErr(mongo.CommandError{Code: 11000}) {
		t.Error("code 11000 not detected")
	}
	if !isDuplicateKeyErr(errors.New("E11000 duplicate key error collection")) {
		t.Error("message form not detected")
	}
	if isDuplicateKeyErr(nil) || isDuplicateKeyErr(errors.New("timeout")) {
		t.Error("false positive")
	}
}

// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// folderNodes matches foldernode.CollectionName. The store package's tests
// import testutil, which imports this package.
const folderNodes = "folder_nodes"

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	var problems []string

	if err := ensureFolderNodes(ctx, db, log); err != nil {
		problems = append(problems, folderNodes+": "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(p *bool) bool {
	return p != nil && *p
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// listIndexes returns the collection's indexes keyed by key signature.
func listIndexes(ctx context.Context, coll *mongo.Collection, log *zap.Logger) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		log.Warn("list indexes failed", zap.String("collection", coll.Name()), zap.Error(err))
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			log.Warn("failed to decode existing index", zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

// ensureIndexSet creates each model unless an index with the same keys and
// uniqueness exists. A same-keys index whose uniqueness differs is dropped
// and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, log *zap.Logger) error {
	var errs []string
	existing := listIndexes(ctx, coll, log)

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", isUnique(unique)),
		}

		if ex, ok := existing[sig]; ok {
			if isUnique(unique) == isUnique(ex.Unique) {
				log.Debug("reusing existing index", append(fields, zap.String("existing_name", ex.Name))...)
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", append(fields, zap.Error(err))...)
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			switch {
			case isDuplicateKeyErr(err) && isUnique(unique):
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			default:
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			log.Warn("index ensure failed", append(fields, zap.Error(err))...)
			continue
		}
		log.Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

// folderNodeIndexes lists the folder_nodes indexes. Sibling slots are not
// unique: a reorder writes its rows one at a time and passes through
// transient duplicates.
func folderNodeIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Load a template ordered by parent then position
		{
			Keys: bson.D{
				{Key: "template_id", Value: 1},
				{Key: "parent_id", Value: 1},
				{Key: "sort_order", Value: 1},
			},
			Options: options.Index().SetName("idx_folder_nodes_template_parent_sort"),
		},
		// Name search within a template
		{
			Keys: bson.D{
				{Key: "template_id", Value: 1},
				{Key: "name_ci", Value: 1},
			},
			Options: options.Index().SetName("idx_folder_nodes_template_nameci"),
		},
		// Template summaries by recency
		{
			Keys: bson.D{
				{Key: "template_id", Value: 1},
				{Key: "updated_at", Value: -1},
			},
			Options: options.Index().SetName("idx_folder_nodes_template_updated"),
		},
	}
}

func ensureFolderNodes(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	return ensureIndexSet(ctx, db.Collection(folderNodes), folderNodeIndexes(), log)
}

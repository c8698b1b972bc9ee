// Package validators attaches $jsonSchema validators to the MongoDB
// collections FolderForge writes. Servers that cannot run collMod with a
// validator (some DocumentDB versions) are logged and skipped.
package validators

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/folderforge/internal/app/store/foldernode"
	"github.com/dalemusser/folderforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// collectionDef pairs a collection with its validator. A nil schema only
// ensures the collection exists.
type collectionDef struct {
	name   string
	schema bson.M
}

func collections() []collectionDef {
	return []collectionDef{
		{name: foldernode.CollectionName, schema: folderNodesSchema()},
	}
}

// EnsureAll creates missing collections and applies their validators.
// Every collection is attempted; failures are joined into one error.
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		// Creation below copes with races, so a failed listing only costs
		// a redundant create.
		log.Warn("list collections failed", zap.Error(err))
	}

	var errs []error
	for _, def := range collections() {
		if err := ensureOne(ctx, db, def, contains(existing, def.name), log); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", def.name, err))
		}
	}
	return errors.Join(errs...)
}

func ensureOne(ctx context.Context, db *mongo.Database, def collectionDef, exists bool, log *zap.Logger) error {
	if !exists {
		if _, err := ensureCollection(ctx, db, def.name, log); err != nil {
			return err
		}
	}
	if def.schema == nil {
		return nil
	}
	err := setValidator(ctx, db, def.name, def.schema, log)
	if kind := classify(err); kind == errUnsupported {
		log.Info("validator skipped: server does not support collMod validators",
			zap.String("collection", def.name))
		return nil
	}
	return err
}

// collectionExists reports whether name is already in db.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return contains(names, name), nil
}

// ensureCollection creates name unless it exists. created is true only
// when this call made it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, log *zap.Logger) (created bool, err error) {
	if ok, err := collectionExists(ctx, db, name); err == nil && ok {
		return false, nil
	}
	err = db.CreateCollection(ctx, name)
	switch classify(err) {
	case errNone:
		log.Info("created collection", zap.String("collection", name))
		return true, nil
	case errExists:
		return false, nil
	default:
		log.Warn("create collection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
}

func setValidator(ctx context.Context, db *mongo.Database, name string, schema bson.M, log *zap.Logger) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: schema},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	log.Info("validator ensured", zap.String("collection", name))
	return nil
}

type errKind int

const (
	errNone errKind = iota
	errOther
	errExists      // NamespaceExists (48)
	errUnsupported // CommandNotFound (59), CommandNotSupported (115)
)

// classify buckets server errors by code, falling back to message text for
// servers that report a different code.
func classify(err error) errKind {
	if err == nil {
		return errNone
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 48:
			return errExists
		case 59, 115:
			return errUnsupported
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already exists"), strings.Contains(msg, "namespace exists"):
		return errExists
	case strings.Contains(msg, "no such command"),
		strings.Contains(msg, "not implemented"),
		strings.Contains(msg, "not supported"):
		return errUnsupported
	}
	return errOther
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// folderNodesSchema mirrors models.FolderNode. parent_id is null for roots.
func folderNodesSchema() bson.M {
	types := make(bson.A, 0, len(models.FolderTypes))
	for _, t := range models.FolderTypes {
		types = append(types, string(t))
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"_id", "template_id", "name", "sort_order"},
			"properties": bson.M{
				"_id":           bson.M{"bsonType": "string", "minLength": 1},
				"template_id":   bson.M{"bsonType": "string", "minLength": 1},
				"parent_id":     bson.M{"bsonType": bson.A{"string", "null"}},
				"name":          bson.M{"bsonType": "string"},
				"name_ci":       bson.M{"bsonType": "string"},
				"folder_type":   bson.M{"enum": types},
				"sort_order":    bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"include_files": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"metadata":      bson.M{"bsonType": "object"},
			},
		},
	}
}

// Package foldernode provides MongoDB storage for template folder trees.
package foldernode

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/folderforge/internal/app/system/txn"
	"github.com/dalemusser/folderforge/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// CollectionName is the collection holding folder nodes.
const CollectionName = "folder_nodes"

// ErrNotFound is returned when an update targets a missing node.
var ErrNotFound = errors.New("folder node not found")

// Store provides access to the folder_nodes collection.
type Store struct {
	db  *mongo.Database
	c   *mongo.Collection
	log *zap.Logger
}

// New creates a new folder node store.
func New(db *mongo.Database, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		db:  db,
		c:   db.Collection(CollectionName),
		log: log,
	}
}

// Collection returns the underlying collection (used by the change stream feed).
func (s *Store) Collection() *mongo.Collection {
	return s.c
}

// FetchFolders returns every node of a template ordered by parent, then sort_order.
func (s *Store) FetchFolders(ctx context.Context, templateID string) ([]models.FolderNode, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "parent_id", Value: 1},
		{Key: "sort_order", Value: 1},
	})
	cursor, err := s.c.Find(ctx, bson.M{"template_id": templateID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var nodes []models.FolderNode
	if err := cursor.All(ctx, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// GetFolder returns one node.
func (s *Store) GetFolder(ctx context.Context, id string) (*models.FolderNode, error) {
	var n models.FolderNode
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// InsertFolder stores a new node. The id is supplied by the caller.
func (s *Store) InsertFolder(ctx context.Context, n models.FolderNode) (*models.FolderNode, error) {
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	n.NameCI = text.Fold(n.Name)
	n.FolderType = models.NormalizeFolderType(n.FolderType)

	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return nil, err
	}
	return &n, nil
}

// UpdateFolder applies a partial update to one node.
func (s *Store) UpdateFolder(ctx context.Context, id string, patch models.FolderPatch) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": patchSet(patch)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateFolders applies several updates in one transaction when the
// deployment supports it.
func (s *Store) UpdateFolders(ctx context.Context, updates []models.FolderUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.ID}).
			SetUpdate(bson.M{"$set": patchSet(u.Patch)}))
	}

	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		res, err := s.c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
		if err != nil {
			return err
		}
		if int(res.MatchedCount) != len(updates) {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteFolder removes one node. Children are not touched.
func (s *Store) DeleteFolder(ctx context.Context, id string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DeleteFolders removes several nodes at once.
func (s *Store) DeleteFolders(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

// DeleteTemplate removes every node of a template.
func (s *Store) DeleteTemplate(ctx context.Context, templateID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"template_id": templateID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// TemplateSummary is one row of ListTemplates.
type TemplateSummary struct {
	TemplateID string    `bson:"_id" json:"template_id"`
	Folders    int64     `bson:"folders" json:"folders"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// ListTemplates returns every template that has folders, most recently
// changed first.
func (s *Store) ListTemplates(ctx context.Context) ([]TemplateSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":        "$template_id",
			"folders":    bson.M{"$sum": 1},
			"updated_at": bson.M{"$max": "$updated_at"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	cursor, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []TemplateSummary
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// patchSet converts a patch to a $set document.
func patchSet(p models.FolderPatch) bson.M {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = *p.Name
		set["name_ci"] = text.Fold(*p.Name)
	}
	if p.FolderType != nil {
		set["folder_type"] = models.NormalizeFolderType(*p.FolderType)
	}
	if p.SortOrder != nil {
		set["sort_order"] = *p.SortOrder
	}
	if p.ParentSet {
		set["parent_id"] = p.ParentID
	}
	if p.IncludeFiles != nil {
		set["include_files"] = p.IncludeFiles
	}
	if p.Metadata != nil {
		set["metadata"] = p.Metadata
	}
	return set
}

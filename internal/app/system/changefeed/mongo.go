// internal/app/system/changefeed/mongo.go
package changefeed

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/dalemusser/folderforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoFeed watches the folder collection with a change stream.
// Change streams need a replica set or sharded cluster.
type MongoFeed struct {
	coll  *mongo.Collection
	log   *zap.Logger
	retry time.Duration
}

// NewMongoFeed creates a feed over coll.
func NewMongoFeed(coll *mongo.Collection, log *zap.Logger) *MongoFeed {
	if log == nil {
		log = zap.NewNop()
	}
	return &MongoFeed{coll: coll, log: log, retry: time.Second}
}

type changeEvent struct {
	OperationType string             `bson:"operationType"`
	FullDocument  *models.FolderNode `bson:"fullDocument"`
	DocumentKey   struct {
		ID string `bson:"_id"`
	} `bson:"documentKey"`
}

func templatePipeline(templateID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType": bson.M{"$in": bson.A{"insert", "update", "replace", "delete"}},
			"$or": bson.A{
				bson.M{"fullDocument.template_id": templateID},
				// deletes carry only the document key
				bson.M{"operationType": "delete"},
			},
		}}},
	}
}

// Subscribe opens the stream synchronously and then reads it in the
// background, reopening from the last resume token after errors.
func (f *MongoFeed) Subscribe(ctx context.Context, templateID string, fn func(models.FolderChange)) (io.Closer, error) {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := f.coll.Watch(ctx, templatePipeline(templateID), opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel}
	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		f.run(ctx, stream, templateID, fn)
	}()
	return sub, nil
}

func (f *MongoFeed) run(ctx context.Context, stream *mongo.ChangeStream, templateID string, fn func(models.FolderChange)) {
	log := f.log.With(zap.String("template_id", templateID))
	for {
		for stream.Next(ctx) {
			var ev changeEvent
			if err := stream.Decode(&ev); err != nil {
				log.Warn("decode change event", zap.Error(err))
				continue
			}
			if change, ok := toFolderChange(ev); ok {
				fn(change)
			}
		}
		token := stream.ResumeToken()
		err := stream.Err()
		_ = stream.Close(context.Background())
		if ctx.Err() != nil {
			return
		}
		log.Warn("change stream interrupted, reopening", zap.Error(err))

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(f.retry):
			}
			opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
			if token != nil {
				opts.SetResumeAfter(token)
			}
			next, werr := f.coll.Watch(ctx, templatePipeline(templateID), opts)
			if werr == nil {
				stream = next
				break
			}
			if ctx.Err() != nil {
				return
			}
			log.Error("reopen change stream failed", zap.Error(werr))
			// the token may have fallen off the oplog
			token = nil
		}
	}
}

func toFolderChange(ev changeEvent) (models.FolderChange, bool) {
	switch ev.OperationType {
	case "insert":
		if ev.FullDocument == nil {
			return models.FolderChange{}, false
		}
		return models.FolderChange{EventType: models.ChangeInsert, Record: *ev.FullDocument}, true
	case "update", "replace":
		if ev.FullDocument == nil {
			// document deleted before the lookup ran
			return models.FolderChange{}, false
		}
		return models.FolderChange{EventType: models.ChangeUpdate, Record: *ev.FullDocument}, true
	case "delete":
		return models.FolderChange{EventType: models.ChangeDelete, Record: models.FolderNode{ID: ev.DocumentKey.ID}}, true
	}
	return models.FolderChange{}, false
}

// subscription stops a background reader.
type subscription struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
	close  func() error
}

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		if s.close != nil {
			err = s.close()
		}
		s.wg.Wait()
	})
	return err
}

// Package changefeed delivers folder change events to editor sessions,
// either from a MongoDB change stream or over Redis pub/sub.
package changefeed

import (
	"context"

	"github.com/dalemusser/folderforge/internal/app/system/editor"
	"github.com/dalemusser/folderforge/internal/domain/models"
	"go.uber.org/zap"
)

// Publisher fans a change out to other instances.
type Publisher interface {
	Publish(ctx context.Context, templateID string, ev models.FolderChange) error
}

// Reader loads single rows so published updates carry the full record.
type Reader interface {
	GetFolder(ctx context.Context, id string) (*models.FolderNode, error)
}

// ReadBackend is a backend that can also load single rows.
type ReadBackend interface {
	editor.Backend
	Reader
}

// PublishingBackend wraps the backend of one template and publishes every
// successful write. Publish failures are logged; the write still stands.
type PublishingBackend struct {
	inner      ReadBackend
	pub        Publisher
	templateID string
	log        *zap.Logger
}

// NewPublishingBackend decorates inner for templateID.
func NewPublishingBackend(inner ReadBackend, pub Publisher, templateID string, log *zap.Logger) *PublishingBackend {
	if log == nil {
		log = zap.NewNop()
	}
	return &PublishingBackend{inner: inner, pub: pub, templateID: templateID, log: log}
}

func (b *PublishingBackend) FetchFolders(ctx context.Context, templateID string) ([]models.FolderNode, error) {
	return b.inner.FetchFolders(ctx, templateID)
}

func (b *PublishingBackend) InsertFolder(ctx context.Context, n models.FolderNode) (*models.FolderNode, error) {
	got, err := b.inner.InsertFolder(ctx, n)
	if err != nil {
		return nil, err
	}
	rec := n
	if got != nil {
		rec = *got
	}
	b.publish(ctx, models.ChangeInsert, rec)
	return got, nil
}

func (b *PublishingBackend) UpdateFolder(ctx context.Context, id string, patch models.FolderPatch) error {
	if err := b.inner.UpdateFolder(ctx, id, patch); err != nil {
		return err
	}
	b.publishUpdated(ctx, id)
	return nil
}

// UpdateFolders uses the inner batch updater when there is one.
func (b *PublishingBackend) UpdateFolders(ctx context.Context, updates []models.FolderUpdate) error {
	if bu, ok := b.inner.(editor.BatchUpdater); ok {
		if err := bu.UpdateFolders(ctx, updates); err != nil {
			return err
		}
	} else {
		for _, u := range updates {
			if err := b.inner.UpdateFolder(ctx, u.ID, u.Patch); err != nil {
				return err
			}
		}
	}
	for _, u := range updates {
		b.publishUpdated(ctx, u.ID)
	}
	return nil
}

func (b *PublishingBackend) DeleteFolder(ctx context.Context, id string) error {
	if err := b.inner.DeleteFolder(ctx, id); err != nil {
		return err
	}
	b.publish(ctx, models.ChangeDelete, models.FolderNode{ID: id, TemplateID: b.templateID})
	return nil
}

// DeleteFolders uses the inner batch deleter when there is one.
func (b *PublishingBackend) DeleteFolders(ctx context.Context, ids []string) error {
	if bd, ok := b.inner.(editor.BatchDeleter); ok {
		if err := bd.DeleteFolders(ctx, ids); err != nil {
			return err
		}
	} else {
		for _, id := range ids {
			if err := b.inner.DeleteFolder(ctx, id); err != nil {
				return err
			}
		}
	}
	for _, id := range ids {
		b.publish(ctx, models.ChangeDelete, models.FolderNode{ID: id, TemplateID: b.templateID})
	}
	return nil
}

func (b *PublishingBackend) publishUpdated(ctx context.Context, id string) {
	n, err := b.inner.GetFolder(ctx, id)
	if err != nil {
		b.log.Warn("reload after update failed, change not published",
			zap.String("folder_id", id), zap.Error(err))
		return
	}
	b.publish(ctx, models.ChangeUpdate, *n)
}

func (b *PublishingBackend) publish(ctx context.Context, typ models.ChangeType, rec models.FolderNode) {
	if rec.TemplateID == "" {
		rec.TemplateID = b.templateID
	}
	ev := models.FolderChange{EventType: typ, Record: rec}
	if err := b.pub.Publish(ctx, b.templateID, ev); err != nil {
		b.log.Warn("publish folder change failed",
			zap.String("template_id", b.templateID),
			zap.String("folder_id", rec.ID),
			zap.Error(err))
	}
}

/**
 * @description
 * This file holds the collaborators shared by the registry's application services: the
 * event publisher used to announce committed changes, uploaded file descriptors and the
 * mapping of store failures onto the registry error taxonomy.
 *
 * @dependencies
 * - internal/domain, internal/proof, internal/store: Registry packages.
 */
package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/logging"
	"github.com/LuisRivera1699/wedding-presents/internal/proof"
	"github.com/LuisRivera1699/wedding-presents/internal/store"
)

// EventPublisher defines the interface for publishing change events.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// changeNotifier publishes change events after a mutation has been committed.
// A publish failure is logged and never undoes the mutation.
type changeNotifier struct {
	publisher EventPublisher
	exchange  string
	logger    logging.Logger
}

func (n changeNotifier) notify(ctx context.Context, collection domain.Collection, op domain.ChangeOp, id string) {
	if n.publisher == nil {
		return
	}
	evt := domain.NewChangeEvent(collection, op, id)
	if err := n.publisher.Publish(ctx, n.exchange, evt.RoutingKey(), evt); err != nil {
		n.logger.Warn().Err(err).Str("routing_key", evt.RoutingKey()).Str("id", id).Msg("change event publish failed")
	}
}

// storeUpload puts an upload in the archive and resolves its URL.
// Every failure is reported as an upload error.
func storeUpload(ctx context.Context, archive proof.Archive, prefix string, upload *Upload, now time.Time) (key string, url string, err error) {
	key = proof.BuildKey(prefix, upload.Filename, now)
	key, err = archive.Put(ctx, key, upload.Content, upload.ContentType)
	if err != nil {
		return "", "", domain.UploadErr("the image could not be uploaded, please try again", err)
	}
	url, err = archive.ResolveURL(ctx, key)
	if err != nil {
		return key, "", domain.UploadErr("the image could not be uploaded, please try again", err)
	}
	return key, url, nil
}

func giftLookupErr(err error, message string) error {
	if errors.Is(err, store.ErrGiftNotFound) {
		return domain.NotFoundErr("gift not found")
	}
	return domain.PersistenceErr(message, err)
}

func contributionLookupErr(err error, message string) error {
	if errors.Is(err, store.ErrContributionNotFound) {
		return domain.NotFoundErr("contribution not found")
	}
	return domain.PersistenceErr(message, err)
}

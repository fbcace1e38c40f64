package sync

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"recordings/internal/domain"
	"recordings/internal/store"
)

// RefreshContents fetches the server listing for the folder at the
// given root-relative path and adopts it into the local tree. Items
// with queued outbound changes are preserved as-is - the server does
// not know about them yet - and re-adopted folders keep any subtree
// the client already loaded. The folder announces a single Reloaded
// event when done.
func (w *Webservice) RefreshContents(ctx context.Context, folderPath []uuid.UUID) error {
	remote, err := Load(ctx, w.client, ContentsResource(w.remoteURL, folderPath))
	if err != nil {
		return fmt.Errorf("fetch contents: %w", err)
	}

	folder, ok := w.store.ItemAt(folderPath)
	if !ok || !folder.IsFolder {
		return domain.ErrNotFound
	}

	local, err := w.store.Contents(folder.UUID)
	if err != nil {
		return err
	}

	merged := make([]store.Info, 0, len(local)+len(remote))
	pending := make(map[uuid.UUID]bool)
	for _, item := range local {
		childPath := make([]uuid.UUID, 0, len(folderPath)+1)
		childPath = append(childPath, folderPath...)
		childPath = append(childPath, item.UUID)
		if _, queued := w.NextChange(childPath); queued {
			merged = append(merged, item)
			pending[item.UUID] = true
		}
	}

	for _, item := range remote {
		id, err := uuid.Parse(item.UUID)
		if err != nil {
			return domain.ErrInvalidResponse
		}
		if pending[id] {
			continue
		}
		merged = append(merged, store.Info{UUID: id, Name: item.Name, IsFolder: item.IsFolder})
	}

	return w.store.SetContents(folder.UUID, merged)
}

// Probe confirms that the host at remoteURL speaks the protocol and
// returns its root folder identifier.
func Probe(ctx context.Context, client *http.Client, remoteURL string) (uuid.UUID, error) {
	resp, err := Load(ctx, client, UUIDResource(remoteURL))
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(resp.UUID)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidResponse
	}
	return id, nil
}

// FetchRecording downloads a recording's audio, optionally a byte
// range ("start-end"), e.g. to resume a partial local copy.
func (w *Webservice) FetchRecording(ctx context.Context, id uuid.UUID, byteRange string) ([]byte, error) {
	return Load(ctx, w.client, StreamResource(w.remoteURL, id, byteRange))
}

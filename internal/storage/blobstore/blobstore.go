// Package blobstore implements the document and flag stores over Azure
// Blob Storage. Transcripts are blobs under per-rep prefixes; the flag
// property bag lives in blob metadata.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"github.com/gdaskalakis/troy/internal/state"
)

// Options configures a Store.
type Options struct {
	// AccountURL is the blob service endpoint, e.g.
	// https://<account>.blob.core.windows.net/.
	AccountURL string

	// Container holds the transcript blobs.
	Container string

	// QuarantinePrefix is where terminally invalid transcripts are moved.
	QuarantinePrefix string
}

// Store is an Azure Blob implementation of both state.StateStore and
// state.DocumentStore. Flag updates are read-then-write, matching the
// pipeline's best-effort contract; a backend wanting stronger guarantees
// could condition the write on the blob's ETag without changing callers.
type Store struct {
	client           *azblob.Client
	container        string
	quarantinePrefix string
	now              func() time.Time
}

// New creates a store authenticated with the default Azure credential
// chain.
func New(opts Options) (*Store, error) {
	if opts.AccountURL == "" {
		return nil, fmt.Errorf("missing storage account URL")
	}
	if opts.Container == "" {
		return nil, fmt.Errorf("missing storage container")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("creating azure credential: %w", err)
	}

	client, err := azblob.NewClient(opts.AccountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}

	quarantine := opts.QuarantinePrefix
	if quarantine == "" {
		quarantine = "quarantine"
	}

	return &Store{
		client:           client,
		container:        opts.Container,
		quarantinePrefix: quarantine,
		now:              time.Now,
	}, nil
}

// List implements [state.DocumentStore]. location is a blob name prefix.
func (s *Store) List(ctx context.Context, location string) ([]state.Document, error) {
	prefix := strings.TrimSuffix(location, "/") + "/"
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})

	var docs []state.Document
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing blobs under %q: %w", prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			docs = append(docs, state.Document{
				ID:   *item.Name,
				Name: path.Base(*item.Name),
			})
		}
	}
	return docs, nil
}

// Fetch implements [state.DocumentStore].
func (s *Store) Fetch(ctx context.Context, id string) (string, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, id, nil)
	if err != nil {
		return "", fmt.Errorf("downloading blob %q: %w", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading blob %q: %w", id, err)
	}
	return string(data), nil
}

// Quarantine implements [state.DocumentStore]: copy under the quarantine
// prefix, then delete the source so it leaves the scan set.
func (s *Store) Quarantine(ctx context.Context, id string) error {
	src := s.blobClient(id)
	dst := s.blobClient(path.Join(s.quarantinePrefix, path.Base(id)))

	if _, err := dst.StartCopyFromURL(ctx, src.URL(), nil); err != nil {
		return fmt.Errorf("copying blob %q to quarantine: %w", id, err)
	}
	if _, err := src.Delete(ctx, nil); err != nil {
		return fmt.Errorf("deleting quarantined blob %q: %w", id, err)
	}
	return nil
}

// Flags implements [state.StateStore].
func (s *Store) Flags(ctx context.Context, id string) (state.Flags, error) {
	props, err := s.readProperties(ctx, id)
	if err != nil {
		return state.Flags{}, err
	}
	return state.FlagsFromProperties(props), nil
}

// TrySetInflight implements [state.StateStore].
func (s *Store) TrySetInflight(ctx context.Context, id string) (bool, error) {
	props, err := s.readProperties(ctx, id)
	if err != nil {
		return false, err
	}

	flags := state.FlagsFromProperties(props)
	if flags.Inflight || flags.Processed {
		return false, nil
	}

	flags.Inflight = true
	flags.InflightAt = s.now()
	if err := s.writeProperties(ctx, id, props, flags); err != nil {
		return false, err
	}
	return true, nil
}

// SetProcessed implements [state.StateStore].
func (s *Store) SetProcessed(ctx context.Context, id string) error {
	props, err := s.readProperties(ctx, id)
	if err != nil {
		return err
	}

	flags := state.FlagsFromProperties(props)
	flags.Processed = true
	flags.ProcessedAt = s.now()
	flags.Inflight = false
	return s.writeProperties(ctx, id, props, flags)
}

// SetEmailSent implements [state.StateStore].
func (s *Store) SetEmailSent(ctx context.Context, id string) error {
	props, err := s.readProperties(ctx, id)
	if err != nil {
		return err
	}

	flags := state.FlagsFromProperties(props)
	flags.EmailSent = true
	return s.writeProperties(ctx, id, props, flags)
}

// ClearFlag implements [state.StateStore].
func (s *Store) ClearFlag(ctx context.Context, id string, key string) error {
	props, err := s.readProperties(ctx, id)
	if err != nil {
		return err
	}

	flags := state.FlagsFromProperties(props)
	switch key {
	case state.KeyInflight:
		flags.Inflight = false
		flags.InflightAt = time.Time{}
	case state.KeyProcessed:
		flags.Processed = false
		flags.ProcessedAt = time.Time{}
	case state.KeyEmailSent:
		flags.EmailSent = false
	default:
		return fmt.Errorf("unknown flag key %q", key)
	}
	return s.writeProperties(ctx, id, props, flags)
}

func (s *Store) blobClient(id string) *blob.Client {
	return s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(id)
}

// readProperties returns the blob's metadata with keys normalized to lower
// case; the service canonicalizes metadata header casing on the way back.
func (s *Store) readProperties(ctx context.Context, id string) (map[string]string, error) {
	resp, err := s.blobClient(id).GetProperties(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("reading properties of blob %q: %w", id, err)
	}

	props := make(map[string]string, len(resp.Metadata))
	for k, v := range resp.Metadata {
		if v != nil {
			props[strings.ToLower(k)] = *v
		}
	}
	return props, nil
}

// writeProperties merges the flag keys into the existing metadata and
// writes the whole set back; SetMetadata replaces the bag wholesale.
func (s *Store) writeProperties(ctx context.Context, id string, existing map[string]string, flags state.Flags) error {
	merged := make(map[string]*string, len(existing)+5)
	for k, v := range existing {
		merged[k] = to.Ptr(v)
	}
	// Drop stale flag entries first so a cleared timestamp doesn't linger.
	for _, key := range []string{state.KeyInflight, state.KeyInflightAt, state.KeyProcessed, state.KeyProcessedAt, state.KeyEmailSent} {
		delete(merged, key)
	}
	for k, v := range flags.Properties() {
		merged[k] = to.Ptr(v)
	}

	if _, err := s.blobClient(id).SetMetadata(ctx, merged, nil); err != nil {
		return fmt.Errorf("writing properties of blob %q: %w", id, err)
	}
	return nil
}

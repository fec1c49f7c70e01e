// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the Client interface so storage
// interactions can be mocked in unit tests (see core/storage/mocks). Both AWS
// S3 and self-hosted MinIO are supported.
//
// # MediaStore
//
// MediaStore is the media collaborator used by observation submissions:
//   - Save: uploads a file under uploads/<name>
//   - URL / Locate: map object keys to public URLs and back
//   - Exists: StatObject probe
//   - Delete: idempotent removal (missing objects are fine)
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	media := storage.NewMediaStore(client, cfg.Storage)
//	err = media.EnsureBucket(ctx)
package storage

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"sighting-engine/core/reconcile"
	"sighting-engine/core/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnsupportedType is returned for uploads that are neither image nor audio.
var ErrUnsupportedType = errors.New("unsupported media type")

// Kind is the media list an upload belongs to.
type Kind int

const (
	Photo Kind = iota
	Audio
)

func (k Kind) String() string {
	if k == Audio {
		return "audio"
	}
	return "photo"
}

var extensions = map[string]string{
	"image/jpeg":   ".jpg",
	"image/png":    ".png",
	"image/gif":    ".gif",
	"image/webp":   ".webp",
	"image/heic":   ".heic",
	"audio/mpeg":   ".mp3",
	"audio/mp4":    ".m4a",
	"audio/ogg":    ".ogg",
	"audio/wav":    ".wav",
	"audio/x-wav":  ".wav",
	"audio/webm":   ".webm",
	"audio/flac":   ".flac",
	"audio/x-flac": ".flac",
}

// Storage is the media persistence collaborator.
type Storage interface {
	Key(name string) string
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	URL(key string) string
	Locate(url string) (string, bool)
	Delete(ctx context.Context, key string) error
}

// Upload is one uploaded file.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// KeepList is a caller-declared retention list. The zero value means the
// caller did not send one.
type KeepList struct {
	urls     map[string]struct{}
	supplied bool
}

// Keep builds a supplied keep-list. Blank entries are dropped, so a list of
// only blanks keeps nothing.
func Keep(urls ...string) KeepList {
	k := KeepList{urls: make(map[string]struct{}, len(urls)), supplied: true}
	for _, u := range utils.NonEmpty(urls) {
		k.urls[u] = struct{}{}
	}
	return k
}

// Supplied reports whether the caller sent the list at all.
func (k KeepList) Supplied() bool {
	return k.supplied
}

// Request is one reconciliation of an observation's media.
type Request struct {
	CurrentPhotos []string
	CurrentAudio  []string
	KeepPhotos    KeepList
	KeepAudio     KeepList
	Uploads       []Upload
}

// Touched reports whether the request can change anything.
func (r Request) Touched() bool {
	return r.KeepPhotos.Supplied() || r.KeepAudio.Supplied() || len(r.Uploads) > 0
}

// Classify maps a declared content type (or, failing that, the file name)
// to a media kind.
func Classify(contentType, filename string) (Kind, string, error) {
	ct := normalizeType(contentType, filename)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return Photo, ct, nil
	case strings.HasPrefix(ct, "audio/"):
		return Audio, ct, nil
	}
	return 0, ct, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
}

// Validate returns the file names of uploads that cannot be classified.
func Validate(uploads []Upload) []string {
	var bad []string
	for _, up := range uploads {
		if _, _, err := Classify(up.ContentType, up.Filename); err != nil {
			bad = append(bad, up.Filename)
		}
	}
	return bad
}

func normalizeType(contentType, filename string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt != "application/octet-stream" {
		return strings.ToLower(mt)
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt
		}
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func extensionFor(contentType, filename string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	return ".bin"
}

// Reconciler computes and stages media changes for one observation.
type Reconciler struct {
	storage Storage
	logger  *zap.Logger
}

// NewReconciler creates a media reconciler.
func NewReconciler(storage Storage, logger *zap.Logger) *Reconciler {
	return &Reconciler{storage: storage, logger: logger}
}

// Reconcile applies keep-lists and stores uploads. Stale objects are not
// deleted here; the returned plan deletes them on Commit. If any upload
// fails, every object already written by this call is removed before the
// error is returned.
func (r *Reconciler) Reconcile(ctx context.Context, req Request) (*Plan, error) {
	kinds := make([]Kind, len(req.Uploads))
	types := make([]string, len(req.Uploads))
	for i, up := range req.Uploads {
		kind, ct, err := Classify(up.ContentType, up.Filename)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", up.Filename, err)
		}
		kinds[i], types[i] = kind, ct
	}

	plan := &Plan{storage: r.storage, logger: r.logger}
	plan.Photos, plan.stale = retain(req.CurrentPhotos, req.KeepPhotos, plan.stale)
	plan.Audio, plan.stale = retain(req.CurrentAudio, req.KeepAudio, plan.stale)

	for i, up := range req.Uploads {
		url, err := r.store(ctx, plan, up, types[i])
		if err != nil {
			plan.Discard(ctx)
			return nil, fmt.Errorf("store %s: %w", up.Filename, err)
		}
		if kinds[i] == Audio {
			plan.Audio = append(plan.Audio, url)
			plan.NewAudio = append(plan.NewAudio, url)
		} else {
			plan.Photos = append(plan.Photos, url)
			plan.NewPhotos = append(plan.NewPhotos, url)
		}
	}
	return plan, nil
}

func (r *Reconciler) store(ctx context.Context, plan *Plan, up Upload, contentType string) (string, error) {
	rc, err := up.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	key := r.storage.Key(uuid.NewString() + extensionFor(contentType, up.Filename))
	if err := r.storage.Save(ctx, key, rc, up.Size, contentType); err != nil {
		return "", err
	}
	plan.uploaded = append(plan.uploaded, key)
	return r.storage.URL(key), nil
}

// retain applies a keep-list. An absent list keeps everything.
func retain(current []string, keep KeepList, stale []string) ([]string, []string) {
	kept := append([]string{}, current...)
	if !keep.Supplied() {
		return kept, stale
	}
	kept, dropped := reconcile.Partition(current, keep.urls)
	if kept == nil {
		kept = []string{}
	}
	return kept, append(stale, dropped...)
}

package sink

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/filestore"
)

// Object writes into a bucket of an object store, under an optional key
// prefix. Object stores have no append, so Append reads the current object
// and writes it back extended; concurrent appenders can lose entries.
type Object struct {
	store  filestore.Store
	bucket string
	prefix string
}

// NewObject creates bucket if needed and returns a sink writing into it.
func NewObject(ctx context.Context, store filestore.Store, bucket, prefix string) (*Object, error) {
	if bucket == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "bucket name is empty")
	}
	if err := store.EnsureBucket(ctx, bucket); err != nil {
		return nil, err
	}
	return &Object{store: store, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// OpenObject returns a sink over an existing bucket. It never creates the
// bucket and fails with NotFound when it is missing.
func OpenObject(ctx context.Context, store filestore.Store, bucket, prefix string) (*Object, error) {
	if bucket == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "bucket name is empty")
	}
	ok, err := store.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "bucket %q does not exist", bucket)
	}
	return &Object{store: store, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (o *Object) Write(ctx context.Context, p string, content []byte) error {
	key, err := o.key(p)
	if err != nil {
		return err
	}
	if _, err := o.store.PutObject(ctx, o.bucket, key, bytes.NewReader(content), int64(len(content)), ContentType(p)); err != nil {
		return writeFailure("put", p, err)
	}
	return nil
}

func (o *Object) Append(ctx context.Context, p string, content []byte) error {
	current, err := o.Read(ctx, p)
	if err != nil && !errs.IsNotFound(err) {
		return writeFailure("append", p, err)
	}
	return o.Write(ctx, p, append(current, content...))
}

func (o *Object) Read(ctx context.Context, p string) ([]byte, error) {
	key, err := o.key(p)
	if err != nil {
		return nil, err
	}
	obj, err := o.store.GetObject(ctx, o.bucket, key)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	b, err := io.ReadAll(obj)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "read "+p, err)
	}
	return b, nil
}

func (o *Object) List(ctx context.Context) ([]string, error) {
	prefix := ""
	if o.prefix != "" {
		prefix = o.prefix + "/"
	}
	infos, err := o.store.ListObjects(ctx, o.bucket, filestore.ListOptions{Prefix: prefix, Recursive: true})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir {
			continue
		}
		out = append(out, strings.TrimPrefix(info.Key, prefix))
	}
	sort.Strings(out)
	return out, nil
}

func (o *Object) key(p string) (string, error) {
	c, err := Clean(p)
	if err != nil {
		return "", err
	}
	return path.Join(o.prefix, c), nil
}

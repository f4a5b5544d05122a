package storagesvc

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/mwalimu/darasa/core"
)

// localService keeps uploaded files on the local disk under MediaRoot.
// DEV/TEST stand-in for a real object store; swap behind core.FileStorage.
type localService struct {
	root    string
	baseURL string
}

var _ core.FileStorage = (*localService)(nil)

func NewLocalService() *localService {
	return &localService{
		root:    core.Conf.MediaRoot,
		baseURL: core.Conf.FrontendBaseURL + "/media",
	}
}

func (svc *localService) path(key string) string {
	return filepath.Join(svc.root, filepath.FromSlash(key))
}

func (svc *localService) Save(ctx context.Context, key string, r io.Reader) error {
	fp := svc.path(key)
	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return errors.Wrap(err, "creating media dir")
	}
	f, err := os.Create(fp)
	if err != nil {
		return errors.Wrap(err, "creating media file")
	}
	defer f.Close()
	if _, err = io.Copy(f, r); err != nil {
		return errors.Wrap(err, "writing media file")
	}
	return nil
}

func (svc *localService) Delete(ctx context.Context, key string) error {
	if err := os.Remove(svc.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing media file")
	}
	return nil
}

func (svc *localService) URL(key string) string {
	return svc.baseURL + "/" + key
}

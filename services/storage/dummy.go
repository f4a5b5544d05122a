package storagesvc

import (
	"context"
	"io"
	"io/ioutil"
	"sync"

	"github.com/mwalimu/darasa/core"
)

// dummyService discards file bytes and remembers keys. Tests only.
type dummyService struct {
	mutex sync.Mutex
	keys  map[string]int64
}

var _ core.FileStorage = (*dummyService)(nil)

func NewDummyService() *dummyService {
	return &dummyService{keys: make(map[string]int64)}
}

func (svc *dummyService) Save(ctx context.Context, key string, r io.Reader) error {
	n, err := io.Copy(ioutil.Discard, r)
	if err != nil {
		return err
	}
	svc.mutex.Lock()
	svc.keys[key] = n
	svc.mutex.Unlock()
	return nil
}

func (svc *dummyService) Delete(ctx context.Context, key string) error {
	svc.mutex.Lock()
	delete(svc.keys, key)
	svc.mutex.Unlock()
	return nil
}

func (svc *dummyService) URL(key string) string {
	return "dummy://" + key
}

// Has reports whether a key was saved and not deleted.
func (svc *dummyService) Has(key string) bool {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()
	_, ok := svc.keys[key]
	return ok
}

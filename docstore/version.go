package docstore

import (
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// VersionTracker 记录已知文档的版本号，由调用方持有
type VersionTracker struct {
	mu       sync.RWMutex
	versions map[reflect.Type]map[any]uuid.UUID
}

func NewVersionTracker() *VersionTracker {
	return &VersionTracker{
		versions: make(map[reflect.Type]map[any]uuid.UUID),
	}
}

// Store 记录文档版本
func (v *VersionTracker) Store(docType reflect.Type, id any, version uuid.UUID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	byID, ok := v.versions[docType]
	if !ok {
		byID = make(map[any]uuid.UUID)
		v.versions[docType] = byID
	}
	byID[id] = version
}

// Version 查询文档版本
func (v *VersionTracker) Version(docType reflect.Type, id any) (uuid.UUID, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	version, ok := v.versions[docType][id]
	return version, ok
}

// ClearAll 清空所有记录
func (v *VersionTracker) ClearAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.versions = make(map[reflect.Type]map[any]uuid.UUID)
}

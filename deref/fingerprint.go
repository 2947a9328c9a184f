package deref

import (
	"fmt"
	"hash"
	"hash/fnv"
	"reflect"
	"sort"

	"github.com/erraggy/reftools/referrors"
)

// Fingerprint computes a stable identifier for a document by hashing its
// structure with FNV-64a. Mapping keys are hashed in sorted order so two
// structurally equal documents fingerprint identically. The resolver uses
// fingerprints to namespace resolution history per document, so the same
// pointer in two different documents never collides on one history stack.
//
// Containers already on the current hashing path contribute a fixed marker
// instead of being descended into again, so identity cycles terminate.
func Fingerprint(doc any) (uint64, error) {
	f := &fingerprinter{hash: fnv.New64a(), visited: make(map[uintptr]bool)}
	if err := f.hashValue(doc); err != nil {
		return 0, err
	}
	return f.hash.Sum64(), nil
}

// fingerprinter hashes one document. visited holds the reflect pointers of
// containers on the current hashing path.
type fingerprinter struct {
	hash    hash.Hash64
	visited map[uintptr]bool
}

// write feeds one token into the hash, terminated by a zero byte so adjacent
// tokens cannot run together.
func (f *fingerprinter) write(s string) {
	_, _ = f.hash.Write([]byte(s))
	_, _ = f.hash.Write([]byte{0})
}

func (f *fingerprinter) hashValue(v any) error {
	switch t := v.(type) {
	case nil:
		f.write("nil")
	case map[string]any:
		ptr := reflect.ValueOf(t).Pointer()
		if f.visited[ptr] {
			f.write("circular")
			return nil
		}
		f.visited[ptr] = true
		defer func() { f.visited[ptr] = false }()

		f.write("map")
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			f.write(k)
			if err := f.hashValue(t[k]); err != nil {
				return err
			}
		}
	case []any:
		// Empty slices can share a backing pointer and have no path to
		// close a cycle, so only non-empty slices are tracked.
		if len(t) > 0 {
			ptr := reflect.ValueOf(t).Pointer()
			if f.visited[ptr] {
				f.write("circular")
				return nil
			}
			f.visited[ptr] = true
			defer func() { f.visited[ptr] = false }()
		}
		f.write("seq")
		for _, item := range t {
			if err := f.hashValue(item); err != nil {
				return err
			}
		}
	case string:
		f.write("str")
		f.write(t)
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		f.write(fmt.Sprintf("%T:%v", t, t))
	default:
		switch reflect.ValueOf(t).Kind() {
		case reflect.Func, reflect.Chan, reflect.UnsafePointer:
			return &referrors.MalformedInputError{
				Message: fmt.Sprintf("document cannot be fingerprinted: unsupported %T value", t),
			}
		}
		f.write(fmt.Sprintf("%T:%v", t, t))
	}
	return nil
}

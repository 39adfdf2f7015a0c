package paste

import (
	"errors"
	"fmt"

	"github.com/serroba/paste-go/internal/kv"
)

// Namespace is one of the three key spaces a lookup key can belong to.
type Namespace int

const (
	NamespaceShortCode Namespace = iota + 1
	NamespaceAlias
	NamespaceID
)

func (n Namespace) String() string {
	switch n {
	case NamespaceShortCode:
		return "short code"
	case NamespaceAlias:
		return "alias"
	case NamespaceID:
		return "id"
	default:
		return fmt.Sprintf("namespace(%d)", int(n))
	}
}

// Resolve maps a lookup key to a record id. Short codes are probed
// first, then aliases, then, if key parses as an ID, the records
// themselves. It returns ErrNotFound when nothing matches.
func Resolve(r kv.Reader, key string) (Namespace, ID, error) {
	if ns, id, ok, err := lookupIndex(r, kv.ShortCodes, key); err != nil || ok {
		return ns, id, err
	}

	if ns, id, ok, err := lookupIndex(r, kv.Aliases, key); err != nil || ok {
		return ns, id, err
	}

	id, err := ParseID(key)
	if err != nil {
		return 0, ID{}, ErrNotFound
	}

	if _, err := r.Get(kv.Records, id.Bytes()); err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return 0, ID{}, ErrNotFound
		}

		return 0, ID{}, err
	}

	return NamespaceID, id, nil
}

func lookupIndex(r kv.Reader, bucket kv.Bucket, key string) (Namespace, ID, bool, error) {
	if key == "" {
		return 0, ID{}, false, nil
	}

	value, err := r.Get(bucket, []byte(key))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return 0, ID{}, false, nil
		}

		return 0, ID{}, false, err
	}

	id, err := idFromBytes(value)
	if err != nil {
		return 0, ID{}, false, fmt.Errorf("paste: %s index entry %q: %w", bucket, key, err)
	}

	ns := NamespaceShortCode
	if bucket == kv.Aliases {
		ns = NamespaceAlias
	}

	return ns, id, true, nil
}

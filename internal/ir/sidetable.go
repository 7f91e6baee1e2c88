package ir

// SideTable is a pass-scoped annotation table keyed by node identity.
// Passes allocate one per run and let it go out of scope at pass exit;
// annotations never live on the nodes themselves.
type SideTable[K ~uint32, V any] struct {
	m map[K]V
}

// NewSideTable creates an empty side table.
func NewSideTable[K ~uint32, V any]() *SideTable[K, V] {
	return &SideTable[K, V]{m: make(map[K]V)}
}

func (t *SideTable[K, V]) Set(key K, val V) {
	t.m[key] = val
}

func (t *SideTable[K, V]) Get(key K) (V, bool) {
	v, ok := t.m[key]
	return v, ok
}

// GetOr returns the annotation or the fallback when unset.
func (t *SideTable[K, V]) GetOr(key K, fallback V) V {
	if v, ok := t.m[key]; ok {
		return v
	}
	return fallback
}

func (t *SideTable[K, V]) Has(key K) bool {
	_, ok := t.m[key]
	return ok
}

// SetOnce stores the annotation only on first call for the key and reports
// whether it stored.
func (t *SideTable[K, V]) SetOnce(key K, val V) bool {
	if _, ok := t.m[key]; ok {
		return false
	}
	t.m[key] = val
	return true
}

func (t *SideTable[K, V]) Delete(key K) {
	delete(t.m, key)
}

func (t *SideTable[K, V]) Len() int {
	return len(t.m)
}

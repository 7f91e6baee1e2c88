package ir

import "fmt"

// UniqueNames hands out collision-free generated names per base prefix:
// base__0, base__1, ...
type UniqueNames struct {
	counts map[string]uint32
}

func NewUniqueNames() *UniqueNames {
	return &UniqueNames{counts: make(map[string]uint32)}
}

// Get returns the next unique name for base.
func (u *UniqueNames) Get(base string) string {
	n := u.counts[base]
	u.counts[base] = n + 1
	return fmt.Sprintf("%s__%d", base, n)
}

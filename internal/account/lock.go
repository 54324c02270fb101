package account

import (
	"sync"

	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

// keyLocks hands out one mutex per owner. Entries are reference counted and
// dropped once nobody holds or waits on them.
type keyLocks struct {
	mu sync.Mutex
	m  map[types.Address]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func (k *keyLocks) lock(owner types.Address) func() {
	k.mu.Lock()
	l, ok := k.m[owner]
	if !ok {
		l = &keyLock{}
		k.m[owner] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.Unlock()
			k.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(k.m, owner)
			}
			k.mu.Unlock()
		})
	}
}

// held returns the number of owners with a live lock entry.
func (k *keyLocks) held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.m)
}

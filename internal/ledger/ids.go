package ledger

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	idMu   sync.Mutex
	idMono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// Monotonic entropy keeps IDs minted within one millisecond ordered.
	idMono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// newTransactionID returns a ULID for at, so history IDs sort by time.
func newTransactionID(at time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()

	id, err := ulid.New(ulid.Timestamp(at.UTC()), idMono)
	if err != nil {
		// entropy overflow within a single millisecond
		return ulid.MustNew(ulid.Now(), cryptoRand.Reader).String()
	}
	return id.String()
}

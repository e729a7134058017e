package dataset

// naming.go - canonical table name generation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// NamingService hands out unique table names of the form
// "{prefix}{separator}{sequence}". The sequence is monotonically increasing
// and never reused within the lifetime of the service; no collision
// detection is performed beyond that.
type NamingService struct {
	mu        sync.Mutex
	prefix    string
	separator string
	seq       uint64
}

// NewNamingService creates a naming service with the given prefix and
// separator. The sequence starts at 0.
func NewNamingService(prefix, separator string) *NamingService {
	return &NamingService{prefix: prefix, separator: separator}
}

// NextName returns the next unique table name.
func (s *NamingService) NextName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := fmt.Sprintf("%s%s%d", s.prefix, s.separator, s.seq)
	s.seq++
	return name
}

// SetPrefix changes the name prefix. The sequence is not reset.
func (s *NamingService) SetPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefix = prefix
}

// SetSeparator changes the name separator and resets the sequence to 0.
// The reset is a long-standing quirk callers rely on for reproducible names.
func (s *NamingService) SetSeparator(separator string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.separator = separator
	s.seq = 0
}

// defaultNaming backs datasets constructed without an explicit service.
var defaultNaming = NewNamingService("table", "_")

// SetNamePrefix changes the prefix of the default naming service.
func SetNamePrefix(prefix string) { defaultNaming.SetPrefix(prefix) }

// SetNameSeparator changes the separator of the default naming service and
// resets its sequence.
func SetNameSeparator(separator string) { defaultNaming.SetSeparator(separator) }

// tempName returns a unique name for a transient artifact (staged relation,
// swap table). These never come from the canonical sequence, so a failed
// operation cannot burn canonical names.
func (d *Dataset) tempName(kind string) string {
	return fmt.Sprintf("tmp_%s_%s", kind, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

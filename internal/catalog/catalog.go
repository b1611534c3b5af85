package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnknownProgramme is returned when a PID is not part of the catalog.
	ErrUnknownProgramme = errors.New("programme not in catalog")
	// ErrAlreadyDownloaded is returned when a downloaded programme would transition again.
	ErrAlreadyDownloaded = errors.New("programme already downloaded")
)

// Programme is one known episode.
type Programme struct {
	PID         string
	Name        string
	Episode     string
	Description string
	Downloaded  bool
	Filename    string
	FirstSeen   time.Time
}

// Title renders the feed item title.
func (p Programme) Title() string {
	return p.Episode + " - " + p.Name
}

// Catalog is the ordered collection of programmes for one feed. It is not safe
// for concurrent use; one run owns a catalog for its whole lifetime.
type Catalog struct {
	programmes []Programme
	index      map[string]int
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// Restore rebuilds a catalog from persisted rows, keeping their order. Rows with
// an empty or repeated PID are dropped (first occurrence wins). A row marked
// downloaded without a filename is reset to pending so it is fetched again, and
// a stray filename on a pending row is cleared. The second result counts rows
// that were dropped or repaired.
func Restore(programmes []Programme) (*Catalog, int) {
	c := &Catalog{
		programmes: make([]Programme, 0, len(programmes)),
		index:      make(map[string]int, len(programmes)),
	}
	repaired := 0
	for _, p := range programmes {
		p.PID = strings.TrimSpace(p.PID)
		if p.PID == "" {
			repaired++
			continue
		}
		if _, exists := c.index[p.PID]; exists {
			repaired++
			continue
		}
		switch {
		case p.Downloaded && p.Filename == "":
			p.Downloaded = false
			repaired++
		case !p.Downloaded && p.Filename != "":
			p.Filename = ""
			repaired++
		}
		c.append(p)
	}
	return c, repaired
}

func (c *Catalog) append(p Programme) {
	c.index[p.PID] = len(c.programmes)
	c.programmes = append(c.programmes, p)
}

// Len reports the number of programmes.
func (c *Catalog) Len() int {
	return len(c.programmes)
}

// Contains reports whether pid is known.
func (c *Catalog) Contains(pid string) bool {
	_, ok := c.index[pid]
	return ok
}

// Get returns a copy of the programme with the given pid.
func (c *Catalog) Get(pid string) (Programme, bool) {
	i, ok := c.index[pid]
	if !ok {
		return Programme{}, false
	}
	return c.programmes[i], true
}

// Programmes returns a copy of every programme in catalog order.
func (c *Catalog) Programmes() []Programme {
	out := make([]Programme, len(c.programmes))
	copy(out, c.programmes)
	return out
}

// Pending returns the programmes still waiting for a successful download, in
// catalog order.
func (c *Catalog) Pending() []Programme {
	var out []Programme
	for _, p := range c.programmes {
		if !p.Downloaded {
			out = append(out, p)
		}
	}
	return out
}

// Merge appends every candidate whose PID is not yet in the catalog and
// discards the rest; existing entries are authoritative and left untouched.
// Candidates arriving in the same batch with a repeated PID are only added
// once. Merging the same candidates again is a no-op. Returns the number of
// programmes appended.
func (c *Catalog) Merge(candidates []Programme) int {
	added := 0
	for _, candidate := range candidates {
		if candidate.PID == "" || c.Contains(candidate.PID) {
			continue
		}
		// Candidates come from listings and should be pending; keep the
		// filename/downloaded pairing intact if one is not.
		candidate.Downloaded = candidate.Downloaded && candidate.Filename != ""
		if !candidate.Downloaded {
			candidate.Filename = ""
		}
		c.append(candidate)
		added++
	}
	return added
}

// MarkDownloaded records that pid has been fetched into filename. The
// transition happens at most once per programme.
func (c *Catalog) MarkDownloaded(pid, filename string) error {
	i, ok := c.index[pid]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgramme, pid)
	}
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("mark %s downloaded: filename required", pid)
	}
	if c.programmes[i].Downloaded {
		return fmt.Errorf("%w: %s", ErrAlreadyDownloaded, pid)
	}
	c.programmes[i].Downloaded = true
	c.programmes[i].Filename = filename
	return nil
}

// Counts returns the number of downloaded and pending programmes.
func (c *Catalog) Counts() (downloaded, pending int) {
	for _, p := range c.programmes {
		if p.Downloaded {
			downloaded++
		} else {
			pending++
		}
	}
	return downloaded, pending
}

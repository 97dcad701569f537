package lifecycle

import (
	"time"

	"github.com/poiesic/inventree/core"
)

// BuildReport describes one successful rebuild.
type BuildReport struct {
	GenerationID string
	Records      int
	Units        int
	Patents      int
	Gaps         int

	// Warnings hold one core.ErrMalformedRecord per skipped record.
	Warnings []error

	Dense     bool
	Model     string
	Dimension int

	// Pruned counts older generations removed after the commit.
	Pruned int

	NormalizeTime time.Duration
	SparseTime    time.Duration
	DenseTime     time.Duration
	CommitTime    time.Duration
	Total         time.Duration
}

func (r *BuildReport) countKinds(units []core.TextUnit) {
	for _, u := range units {
		switch u.Metadata.Kind {
		case core.KindPatent:
			r.Patents++
		case core.KindGap:
			r.Gaps++
		}
	}
}

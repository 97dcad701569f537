package search

import "github.com/poiesic/inventree/core"

// SearchMonitor provides hooks to observe the retrieval process.
// Hooks are called from the goroutine running Retrieve, never concurrently.
type SearchMonitor interface {
	Start(query string, k int)
	AfterSparseSearch(results []core.RankedResult)
	AfterDenseSearch(results []core.RankedResult)
	Degraded(reason string)
	Finish(results []core.RankedResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)                   {}
func (n *noopMonitor) AfterSparseSearch(_ []core.RankedResult) {}
func (n *noopMonitor) AfterDenseSearch(_ []core.RankedResult)  {}
func (n *noopMonitor) Degraded(_ string)                       {}
func (n *noopMonitor) Finish(_ []core.RankedResult)            {}

package indexer

// ProgressReporter provides callbacks for reporting indexing progress.
// Implementations can display progress bars, log messages, or remain silent.
// Callbacks are made from the goroutine running Index.
type ProgressReporter interface {
	// OnDiscoveryComplete is called once changes are known.
	OnDiscoveryComplete(changes *ChangeSet)

	// OnFileProcessingStart is called before extracting files.
	OnFileProcessingStart(totalFiles int)

	// OnFileProcessed is called after each file is written to the index.
	OnFileProcessed(fileName string)

	// OnComplete is called when indexing completes successfully.
	OnComplete(stats *Stats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryComplete(changes *ChangeSet) {}
func (n *NoOpProgressReporter) OnFileProcessingStart(totalFiles int)   {}
func (n *NoOpProgressReporter) OnFileProcessed(fileName string)        {}
func (n *NoOpProgressReporter) OnComplete(stats *Stats)                {}

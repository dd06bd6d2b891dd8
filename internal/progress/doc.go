// Package progress renders byte-count progress for split and combine runs.
//
// A Reporter satisfies parts.Observer, so it can be handed straight to
// parts.Split or parts.Combine. Updates are recorded with atomics; a
// background goroutine prints the current state to stderr.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    Label:     "Splitting",
//	    Path:      source,
//	    TotalSize: size,
//	    PartSize:  partSize,
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	parts.Split(ctx, source, parts.WithObserver(reporter))
//
// # Output Format
//
//	[nspsplit] Splitting: /games/title.nsp
//	[nspsplit] Total size: 9.5 GiB | Part size: 4.0 GiB
//	[nspsplit] Progress: 45.2% | 4.3 GiB / 9.5 GiB | Speed: 210 MiB/s | ETA: 25s
//
// The package also parses and formats human-readable sizes ("4GiB", "256MB").
package progress

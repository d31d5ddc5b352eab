// Package source provides ladder sources for the engine.
//
// A ladder source loads ladder definitions and reports when they change.
//
// # File Source
//
// The file source loads ladders from YAML files on disk and watches for
// changes using fsnotify:
//
//	src := source.NewFileSource("ladders/", nil)
//	ladders, err := src.LoadLadders(ctx)
//
// # Hot-Reload
//
// Rapid successive writes (editors often write a file several times) are
// debounced into a single event:
//
//	events, err := src.Watch(ctx)
//	for event := range events {
//	    if event.Error != nil {
//	        continue
//	    }
//	    ladders, err := src.LoadLadders(ctx)
//	}
//
// # In-Memory Source
//
// The in-memory source serves already-parsed ladders. Replacing its
// contents notifies watchers, which makes it usable for tests and for
// the embedded catalog:
//
//	src := source.NewMemorySource(ladders...)
//
// # Git Source
//
// The Git source clones a repository with go-git and loads the ladders
// under a subdirectory. Watch pulls on an interval and reports a change
// whenever HEAD moves:
//
//	src, err := source.NewGitSource(source.GitOptions{
//	    Repository: "https://github.com/acme/ladders.git",
//	    Branch:     "main",
//	    Path:       "ladders",
//	}, logger)
//
// # Combining Sources
//
// MultiSource concatenates several sources and merges their change
// events, e.g. the catalog plus a directory plus a repository.
package source

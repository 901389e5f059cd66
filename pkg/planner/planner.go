// Package planner decides which image files need downloading.
//
// Plan compares the records of a crawl with the output directory. Files
// already on disk are skipped unless forced, and when a post has both a
// standard and a quality variant only one of them is kept: the quality file
// wins and a standard file it replaces is removed, either immediately when
// the quality file is already present or after the quality download
// succeeds (Task.Supersedes).
package planner

import (
	"errors"
	"fmt"

	"yandl/pkg/records"
)

// Kind identifies the variant a task downloads
type Kind string

const (
	KindStandard Kind = "standard"
	KindQuality  Kind = "quality"
)

// Display returns the format name shown to users
func (k Kind) Display() string {
	if k == KindQuality {
		return "PNG"
	}
	return "JPG"
}

// Task is one file to download
type Task struct {
	URL       string
	Directory string
	Filename  string
	Kind      Kind
	// Supersedes names a standard file to delete once this task succeeds
	Supersedes string
}

// Warning reports files of one kind that already exist on disk
type Warning struct {
	Kind      Kind
	Existing  int
	Total     int
	Overwrite bool
}

func (w Warning) String() string {
	action := "skipped"
	if w.Overwrite {
		action = "overwritten"
	}
	return fmt.Sprintf("%d of %d %s images already exist. They will be %s.",
		w.Existing, w.Total, w.Kind.Display(), action)
}

// Options controls planning
type Options struct {
	Directory     string
	Force         bool
	PreferQuality bool
}

// FileSystem is the view of the output directory the planner needs
type FileSystem interface {
	Exists(name string) bool
	Remove(name string) error
}

// Result is the outcome of planning. Quality tasks are downloaded first.
type Result struct {
	Quality  []Task
	Standard []Task
	Warnings []Warning
	// Skipped counts candidates dropped because their file exists
	Skipped int
	// Deduplicated counts standard candidates dropped in favour of quality
	Deduplicated int
	// Removed counts standard files deleted because a quality file exists
	Removed int
	// Fallback maps a planned quality filename to the standard task to run
	// if that quality download fails and no standard file is on disk
	Fallback map[string]Task
}

// Tasks returns all tasks in download order
func (r Result) Tasks() []Task {
	out := make([]Task, 0, len(r.Quality)+len(r.Standard))
	out = append(out, r.Quality...)
	return append(out, r.Standard...)
}

// Plan builds the download plan for recs. The returned error joins any
// failures to remove redundant standard files; the Result is complete
// either way.
func Plan(recs []records.ImageRecord, opts Options, fs FileSystem) (Result, error) {
	res := Result{Fallback: make(map[string]Task)}
	if fs == nil {
		return res, errors.New("planner: nil file system")
	}

	// quality candidates
	var qualityCands []Task
	if opts.PreferQuality {
		seen := make(map[string]bool)
		for _, rec := range recs {
			if !rec.HasQuality() || seen[rec.Quality.Filename] {
				continue
			}
			seen[rec.Quality.Filename] = true
			qualityCands = append(qualityCands, newTask(rec.Quality, opts.Directory, KindQuality))
		}
	}

	qualityOnDisk := make(map[string]bool)
	for _, t := range qualityCands {
		if fs.Exists(t.Filename) {
			qualityOnDisk[t.Filename] = true
		}
	}

	planned := make(map[string]int)
	res.Quality, res.Skipped = filterExisting(qualityCands, qualityOnDisk, opts, &res.Warnings)
	for i, t := range res.Quality {
		planned[t.Filename] = i
	}

	// standard candidates, deduplicated against the quality variant
	var errs []error
	var standardCands []Task
	seen := make(map[string]bool)
	for _, rec := range recs {
		if rec.StandardURL == "" || seen[rec.StandardFilename] {
			continue
		}
		seen[rec.StandardFilename] = true
		std := rec.Standard()

		if opts.PreferQuality && rec.HasQuality() {
			q := rec.Quality.Filename
			if qualityOnDisk[q] {
				if std.Filename != q && fs.Exists(std.Filename) {
					if err := fs.Remove(std.Filename); err != nil {
						errs = append(errs, err)
					} else {
						res.Removed++
					}
				}
				res.Deduplicated++
				continue
			}
			if i, ok := planned[q]; ok {
				switch {
				case std.Filename == q:
				case fs.Exists(std.Filename):
					res.Quality[i].Supersedes = std.Filename
				default:
					res.Fallback[q] = newTask(&std, opts.Directory, KindStandard)
				}
				res.Deduplicated++
				continue
			}
		}

		standardCands = append(standardCands, newTask(&std, opts.Directory, KindStandard))
	}

	standardOnDisk := make(map[string]bool)
	for _, t := range standardCands {
		if fs.Exists(t.Filename) {
			standardOnDisk[t.Filename] = true
		}
	}

	var skipped int
	res.Standard, skipped = filterExisting(standardCands, standardOnDisk, opts, &res.Warnings)
	res.Skipped += skipped

	return res, errors.Join(errs...)
}

func newTask(v *records.Variant, dir string, kind Kind) Task {
	return Task{URL: v.URL, Directory: dir, Filename: v.Filename, Kind: kind}
}

// filterExisting drops candidates whose file exists unless forced, and
// records a warning when any exist.
func filterExisting(cands []Task, onDisk map[string]bool, opts Options, warnings *[]Warning) ([]Task, int) {
	if len(onDisk) > 0 {
		*warnings = append(*warnings, Warning{
			Kind:      cands[0].Kind,
			Existing:  len(onDisk),
			Total:     len(cands),
			Overwrite: opts.Force,
		})
	}

	kept := make([]Task, 0, len(cands))
	skipped := 0
	for _, t := range cands {
		if onDisk[t.Filename] && !opts.Force {
			skipped++
			continue
		}
		kept = append(kept, t)
	}
	return kept, skipped
}

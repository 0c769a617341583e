package pkg

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/theflyingzamboni/lodscript/pkg/common"
)

// Engine wires the shared read-only collaborators (glyph table, flag
// lexicon, kind config) into the per-file pipelines. One engine serves a
// whole run; files are independent and fan out across workers, while each
// file's pipeline runs its stages strictly in order so that deduplication
// and budget enforcement see the complete entry set before anything is
// written.
type Engine struct {
	Config  *Config
	Glyphs  *GlyphTable
	Flags   *FlagLexicon
	Codec   *TextCodec
	Workers int
}

// NewEngine builds an engine from a kind config and a loaded glyph table.
func NewEngine(cfg *Config, glyphs *GlyphTable) (*Engine, error) {
	flags, err := NewFlagLexicon()
	if err != nil {
		return nil, err
	}
	return &Engine{
		Config:  cfg,
		Glyphs:  glyphs,
		Flags:   flags,
		Codec:   NewTextCodec(glyphs, flags),
		Workers: runtime.NumCPU(),
	}, nil
}

// Report collects the per-file outcome of a run. Errors are file-scoped:
// one file failing never stops the others.
type Report struct {
	mu        sync.Mutex
	Processed int
	Skipped   int
	Errors    map[string]error
}

func newReport() *Report {
	return &Report{Errors: make(map[string]error)}
}

func (r *Report) addProcessed() {
	r.mu.Lock()
	r.Processed++
	r.mu.Unlock()
}

func (r *Report) addSkipped() {
	r.mu.Lock()
	r.Skipped++
	r.mu.Unlock()
}

func (r *Report) addError(file string, err error) {
	r.mu.Lock()
	r.Errors[file] = err
	r.mu.Unlock()
	common.LogError(common.WarnFileErrors, file, err)
}

// Failed returns the number of files that reported an error.
func (r *Report) Failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Errors)
}

// forEachFile fans paths out across the engine's workers.
func (e *Engine) forEachFile(paths []string, fn func(index int, path string)) {
	workers := e.Workers
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i, paths[i])
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// DumpAllText extracts and decodes every entry of every given file and
// returns the tabular rows in input order, plus the per-file report.
func (e *Engine) DumpAllText(paths []string) ([]Row, *Report) {
	common.LogInfo(common.InfoDumpingScripts)
	report := newReport()
	extractor := NewExtractor(e.Config, e.Codec)
	perFile := make([][]Row, len(paths))

	e.forEachFile(paths, func(i int, path string) {
		name := filepath.Base(path)
		kind := e.Config.KindFor(path)
		if kind == nil {
			common.LogWarn(common.InfoSkippedNoKind, name)
			report.addSkipped()
			return
		}
		common.LogDebug(common.DebugKindMatched, name, kind.Name, kind.Layout, kind.Policy)

		data, err := os.ReadFile(path)
		if err != nil {
			report.addError(name, common.FormatError(common.ErrFailedToReadFile, err))
			return
		}
		sf, err := extractor.ExtractFile(name, data, kind)
		if err != nil {
			report.addError(name, err)
			return
		}
		perFile[i] = ExportRows(sf, e.Codec)
		report.addProcessed()
		common.LogInfo(common.InfoEntriesDumped, name, len(sf.Entries))
	})

	var rows []Row
	for _, fileRows := range perFile {
		rows = append(rows, fileRows...)
	}
	return rows, report
}

// DumpToCSV runs DumpAllText and writes the rows to a script CSV.
func (e *Engine) DumpToCSV(paths []string, csvPath string) (*Report, error) {
	rows, report := e.DumpAllText(paths)
	if err := WriteCSV(csvPath, rows); err != nil {
		return report, err
	}
	common.LogInfo(common.InfoCSVWritten, csvPath, len(rows))
	common.LogInfo(common.InfoScriptsDumped, report.Processed, report.Processed+report.Failed())
	return report, nil
}

// InsertAllText re-extracts each file from its clean on-disk state, merges
// the edited rows, and runs the encode → dedupe → layout → budget → repack
// pipeline. A file is rewritten only when every stage passes; otherwise it
// is left untouched and its error is collected in the report.
func (e *Engine) InsertAllText(csvPath string, paths []string) (*Report, error) {
	common.LogInfo(common.InfoInsertingScripts)
	report := newReport()

	rows, err := ReadCSV(csvPath)
	if err != nil {
		return report, err
	}
	rowsByFile := make(map[string][]Row)
	for _, row := range rows {
		rowsByFile[row.File] = append(rowsByFile[row.File], row)
	}

	e.forEachFile(paths, func(_ int, path string) {
		name := filepath.Base(path)
		kind := e.Config.KindFor(path)
		if kind == nil {
			common.LogWarn(common.InfoSkippedNoKind, name)
			report.addSkipped()
			return
		}
		fileRows, ok := rowsByFile[name]
		if !ok {
			report.addError(name, &CSVSchemaError{Row: 0,
				Reason: "no rows for file " + name})
			return
		}
		if err := e.insertFile(path, name, kind, fileRows); err != nil {
			report.addError(name, err)
			common.LogInfo(common.InfoFileFailed, name)
			return
		}
		report.addProcessed()
	})

	common.LogInfo(common.InfoScriptsInserted, report.Processed, report.Processed+report.Failed())
	return report, nil
}

// insertFile runs the full per-file pipeline. Stage order matters: dedupe
// and budget need the complete entry set, so they act as barriers between
// the per-entry work and the repack.
func (e *Engine) insertFile(path, name string, kind *FileKind, rows []Row) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return common.FormatError(common.ErrFailedToReadFile, err)
	}

	extractor := NewExtractor(e.Config, e.Codec)
	sf, err := extractor.ExtractFile(name, data, kind)
	if err != nil {
		return err
	}
	if err := ApplyRows(sf, rows, e.Codec); err != nil {
		return err
	}

	// Per-entry stage: encode and lay out. Unedited entries keep their
	// original bytes and box slot so an untouched file round-trips
	// losslessly.
	ctx := e.Config.ContextFor(kind)
	edited := 0
	for _, entry := range sf.Entries {
		if !entry.Edited {
			entry.Encoded = entry.OriginalBytes
			continue
		}
		edited++
		entry.Encoded, err = e.Codec.Encode(entry.Content, entry.ID())
		if err != nil {
			return err
		}
		entry.Box, err = ComputeBoxDimension(entry.Content, ctx, entry.ID())
		if err != nil {
			return err
		}
		common.LogDebug(common.DebugEntryEncoded,
			entry.ID(), len(entry.Encoded), entry.Box.Width, entry.Box.Height)
	}

	// Barrier: grouping and budget decisions need every entry final.
	var groups []*DedupGroup
	var membership map[int]int
	if kind.Layout == LayoutPointerTable {
		groups, membership = DedupeEntries(sf.Entries)
	} else {
		groups, membership = IdentityGroups(sf.Entries)
	}
	for _, g := range groups {
		common.LogDebug(common.DebugDedupGroup, g.ID, len(g.Encoded), len(g.Members))
	}
	if err := CheckBudget(sf, groups); err != nil {
		return err
	}

	out, err := RepackFile(sf, groups, membership)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return common.FormatError(common.ErrFailedToWriteFile, err)
	}
	if edited == 0 {
		common.LogInfo(common.InfoFileUnchanged, name)
	}
	common.LogInfo(common.InfoEntriesInserted, name, len(sf.Entries), len(groups),
		AggregateEncodedSize(kind, groups))
	return nil
}

// RefreshBoxDimensions recomputes the Box Dimension column of a script CSV
// from each row's New Dialogue, so editors never maintain it by hand. Rows
// without an edit keep their exported value.
func (e *Engine) RefreshBoxDimensions(csvPath string) (int, error) {
	rows, err := ReadCSV(csvPath)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range rows {
		row := &rows[i]
		if row.New == "" || row.New == row.Original {
			continue
		}
		kind := e.Config.KindFor(row.File)
		if kind == nil {
			common.LogWarn(common.WarnRowForUnknownFile, row.line, row.File)
			continue
		}
		raw, err := ParseBoxDim(row.BoxDim)
		if err != nil || len(raw) == 0 {
			continue // entry has no box-dimension slot
		}
		entryID := fmt.Sprintf("%s #%d", row.File, row.Entry)
		content, err := e.Codec.ParseText(row.New, entryID)
		if err != nil {
			return updated, err
		}
		box, err := ComputeBoxDimension(content, e.Config.ContextFor(kind), entryID)
		if err != nil {
			return updated, err
		}
		w, err := common.SafeIntToUint8(box.Width)
		if err != nil {
			return updated, err
		}
		h, err := common.SafeIntToUint8(box.Height)
		if err != nil {
			return updated, err
		}
		raw[0] = w
		if len(raw) > 1 {
			raw[1] = h
		}
		row.BoxDim = FormatBoxDim(raw)
		updated++
	}

	if err := WriteCSV(csvPath, rows); err != nil {
		return updated, err
	}
	common.LogInfo(common.InfoBoxDimsRefreshed, updated, csvPath)
	return updated, nil
}

// SortRows orders rows by file name and entry number, the order the dump
// writes them in.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].File != rows[j].File {
			return rows[i].File < rows[j].File
		}
		return rows[i].Entry < rows[j].Entry
	})
}

package syncer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"sharesync/internal/compare"
	"sharesync/internal/conflict"
	"sharesync/internal/logger"
	"sharesync/internal/model"
	"sharesync/internal/util"

	"go.uber.org/zap"
)

// Engine walks a source/destination pair and copies whichever files need
// updating. It never deletes: a file present only on the destination of a
// one-way sync is left untouched. In dry-run mode every copy is replaced by
// a no-op that still appends to the returned change lists.
type Engine struct {
	resolver *conflict.Resolver
	dryRun   bool
}

func NewEngine(resolver *conflict.Resolver, dryRun bool) *Engine {
	return &Engine{resolver: resolver, dryRun: dryRun}
}

type OneWayResult struct {
	FilesCopied       []string
	ConflictsResolved []string
	SkippedConflicts  []string
	Errors            []error
}

type BidiResult struct {
	FilesFromShared   []string
	FilesToShared     []string
	ConflictsResolved []string
	SkippedConflicts  []string
	Errors            []error
}

// SyncOneWay copies changed files from srcDir into dstDir. Paths flagged as
// conflicts are settled through decisions first, then the resolver; a
// destination proven newer under the configured mtime window is left in
// place.
func (e *Engine) SyncOneWay(srcDir, dstDir string, exclude []string, decisions map[string]model.Decision) OneWayResult {
	var result OneWayResult

	srcFiles, errs := listFiles(srcDir, exclude)
	result.Errors = append(result.Errors, errs...)

	for _, rel := range sorted(srcFiles) {
		srcPath := filepath.Join(srcDir, rel)
		dstPath := filepath.Join(dstDir, rel)

		if err := checkTypeMismatch(rel, srcPath, dstPath); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}

		src := compare.Stat(srcPath)
		dst := compare.Stat(dstPath)

		switch e.resolver.Classify(src, dst) {
		case model.ClassIdentical:

		case model.ClassSourceNewer:
			if err := e.copy(srcPath, dstPath); err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			result.FilesCopied = append(result.FilesCopied, rel)

		case model.ClassDestNewer:
			logger.Log.Debug("destination newer, left in place",
				zap.String("path", rel))

		case model.ClassConflict:
			d, err := e.decisionFor(rel, src, dst, decisions)
			if err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}

			switch d {
			case model.DecisionOverwriteDest:
				if err := e.copy(srcPath, dstPath); err != nil {
					result.Errors = append(result.Errors, err)
					continue
				}
				result.FilesCopied = append(result.FilesCopied, rel)
				result.ConflictsResolved = append(result.ConflictsResolved, rel)

			case model.DecisionKeepDest:
				result.ConflictsResolved = append(result.ConflictsResolved, rel)

			case model.DecisionSkip:
				result.SkippedConflicts = append(result.SkippedConflicts, rel)
			}
		}
	}

	return result
}

// SyncBidirectional unions the relative-path sets of both sides and copies
// each missing or outdated file toward the side that needs it. Conflicting
// paths follow the pre-resolved decisions: OverwriteDest pushes the project
// side to the shared side, KeepDest copies the shared side back so both
// sides converge, Skip leaves both untouched.
func (e *Engine) SyncBidirectional(projectDir, sharedDir string, exclude []string, decisions map[string]model.Decision) BidiResult {
	var result BidiResult

	projectFiles, errs := listFiles(projectDir, exclude)
	result.Errors = append(result.Errors, errs...)

	sharedFiles, errs := listFiles(sharedDir, exclude)
	result.Errors = append(result.Errors, errs...)

	union := make(map[string]bool, len(projectFiles)+len(sharedFiles))
	for rel := range projectFiles {
		union[rel] = true
	}
	for rel := range sharedFiles {
		union[rel] = true
	}

	for _, rel := range sorted(union) {
		projectPath := filepath.Join(projectDir, rel)
		sharedPath := filepath.Join(sharedDir, rel)

		if err := checkTypeMismatch(rel, projectPath, sharedPath); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}

		src := compare.Stat(projectPath)
		dst := compare.Stat(sharedPath)

		switch e.resolver.Classify(src, dst) {
		case model.ClassIdentical:

		case model.ClassSourceNewer:
			if err := e.copy(projectPath, sharedPath); err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			result.FilesToShared = append(result.FilesToShared, rel)

		case model.ClassDestNewer:
			if err := e.copy(sharedPath, projectPath); err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			result.FilesFromShared = append(result.FilesFromShared, rel)

		case model.ClassConflict:
			d, err := e.decisionFor(rel, src, dst, decisions)
			if err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}

			switch d {
			case model.DecisionOverwriteDest:
				if err := e.copy(projectPath, sharedPath); err != nil {
					result.Errors = append(result.Errors, err)
					continue
				}
				result.FilesToShared = append(result.FilesToShared, rel)
				result.ConflictsResolved = append(result.ConflictsResolved, rel)

			case model.DecisionKeepDest:
				if err := e.copy(sharedPath, projectPath); err != nil {
					result.Errors = append(result.Errors, err)
					continue
				}
				result.FilesFromShared = append(result.FilesFromShared, rel)
				result.ConflictsResolved = append(result.ConflictsResolved, rel)

			case model.DecisionSkip:
				result.SkippedConflicts = append(result.SkippedConflicts, rel)
			}
		}
	}

	return result
}

// CollectConflicts scans a pair read-only and returns every path classified
// as a conflict, without resolving anything. The Package Coordinator runs
// this across all mappings before fan-out so a batch resolution can settle
// each path exactly once.
func (e *Engine) CollectConflicts(srcDir, dstDir string, exclude []string) []model.Conflict {
	srcFiles, _ := listFiles(srcDir, exclude)

	var conflicts []model.Conflict
	for _, rel := range sorted(srcFiles) {
		srcPath := filepath.Join(srcDir, rel)
		dstPath := filepath.Join(dstDir, rel)

		src := compare.Stat(srcPath)
		dst := compare.Stat(dstPath)

		if e.resolver.Classify(src, dst) == model.ClassConflict {
			conflicts = append(conflicts, model.Conflict{
				Path:   rel,
				Source: src,
				Dest:   dst,
				Reason: "content differs on both sides",
			})
		}
	}

	return conflicts
}

func (e *Engine) decisionFor(rel string, src, dst model.FileStat, decisions map[string]model.Decision) (model.Decision, error) {
	if d, ok := decisions[rel]; ok {
		return d, nil
	}

	d, err := e.resolver.ResolveOne(model.Conflict{
		Path:   rel,
		Source: src,
		Dest:   dst,
		Reason: "content differs on both sides",
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve conflict for %s: %w", rel, err)
	}

	return d, nil
}

func (e *Engine) copy(src, dst string) error {
	if e.dryRun {
		logger.Log.Info("dry-run: would copy",
			zap.String("src", src),
			zap.String("dst", dst))
		return nil
	}

	if err := util.CopyFile(src, dst); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}

	logger.Log.Debug("copied",
		zap.String("src", src),
		zap.String("dst", dst))

	return nil
}

// listFiles returns the set of non-excluded file paths under root, relative
// and slash-separated. A missing root is an empty set, not an error, so a
// first sync into a fresh tree behaves like any other.
func listFiles(root string, exclude []string) (map[string]bool, []error) {
	files := make(map[string]bool)

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return files, nil
	}

	var errs []error
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if compare.IsExcluded(rel, exclude) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if !d.IsDir() {
			files[rel] = true
		}

		return nil
	})
	if err != nil {
		errs = append(errs, err)
	}

	return files, errs
}

func checkTypeMismatch(rel, aPath, bPath string) error {
	ai, aerr := os.Stat(aPath)
	bi, berr := os.Stat(bPath)
	if aerr == nil && berr == nil && ai.IsDir() != bi.IsDir() {
		return fmt.Errorf("%s: file on one side, directory on the other", rel)
	}

	return nil
}

func sorted(set map[string]bool) []string {
	paths := make([]string, 0, len(set))
	for rel := range set {
		paths = append(paths, rel)
	}

	sort.Strings(paths)
	return paths
}

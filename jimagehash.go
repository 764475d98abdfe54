package jimagehash

import (
	"errors"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/diepinto30/JImageHash/dhash"
	"github.com/diepinto30/JImageHash/hash"
	"github.com/diepinto30/JImageHash/utils"
	"github.com/diepinto30/JImageHash/vptree"
)

func buildTree(files []string, hasher *dhash.Hasher) (*vptree.VPTree, *vptree.FileMapper) {
	var wg sync.WaitGroup
	var fileMap vptree.FileMapper

	// By default this will be the runtime.NumCPU but will be GOMAXPROCS if set in the environment
	nWorkers := runtime.GOMAXPROCS(0)
	work := make(chan string)
	results := make(chan *vptree.Item)

	// Spin up nWorkers to hash images concurrently
	for range nWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range work {
				img, err := utils.LoadImage(f)
				if err != nil {
					slog.Error("Error loading image", "file", f, "error", err)
					continue
				}
				fp := hasher.Hash(img)
				slog.Info("Computed image hash", "file", f, "hash", fp)
				results <- vptree.NewItem(f, &fileMap, fp)
			}
		}()
	}

	// Handle shifting images onto the worker queue and synchronizing
	go func() {
		for _, f := range files {
			work <- f
		}
		close(work)
		wg.Wait()
		close(results)
	}()

	// Accumulate the computed hashes to build the vptree
	var items []*vptree.Item
	for item := range results {
		items = append(items, item)
	}
	return vptree.New(items), &fileMap
}

func gatherDuplicateIDs(tree *vptree.VPTree, threshold float64) ([][]uint, int) {
	var total int
	var skip []uint
	var ids [][]uint

	for item := range tree.All() {
		if slices.Contains(skip, item.ID) {
			continue
		}
		found, dist := tree.Within(item, threshold)
		if len(found) <= 0 {
			continue
		}
		slog.Info("VPTree found results within item", "item", item.ID, "results", len(found), "distances", dist, "threshold", threshold)

		group := []uint{item.ID}
		// A reciprocal search so transitive duplicates land in one group,
		// anything found here is at most 2x the threshold from the first item
		for _, i := range found {
			group = append(group, i.ID)
			f, _ := tree.Within(i, threshold)
			for _, F := range f {
				group = append(group, F.ID)
			}
		}
		slices.Sort(group)
		group = slices.Compact(group)
		total += len(group)
		skip = append(skip, group...)
		ids = append(ids, group)
	}

	return ids, total
}

// Duplicates scans files for near duplicate images, grouping any whose
// difference hashes land within threshold bits of each other.
func Duplicates(files []string, hasher *dhash.Hasher, threshold int) ([][]string, int, error) {
	if len(files) == 0 {
		return nil, 0, errors.New("no files to scan")
	}
	tree, fileMap := buildTree(files, hasher)
	ids, total := gatherDuplicateIDs(tree, float64(threshold))

	filegroups := make([][]string, len(ids))
	for i, group := range ids {
		paths := make([]string, 0, len(group))
		for _, id := range group {
			if path, ok := fileMap.ByID(id); ok {
				paths = append(paths, path)
			}
		}
		filegroups[i] = paths
	}
	return filegroups, total, nil
}

// Compare checks the target image against the given files and collects any
// within threshold bits of its hash.
func Compare(hasher *dhash.Hasher, threshold int, target string, files ...string) (bool, []string) {
	img, err := utils.LoadImage(target)
	if err != nil {
		slog.Error("Error loading image", "file", target, "error", err)
		return false, nil
	}
	want := hasher.Hash(img)

	var matches []string
	for _, f := range files {
		img, err := utils.LoadImage(f)
		if err != nil {
			slog.Error("Error loading image", "file", f, "error", err)
			continue
		}
		dist := matchDistance(want, hasher.Hash(img))
		if dist <= threshold {
			matches = append(matches, f)
		}
	}
	return len(matches) > 0, matches
}

// Hashes here always share one hasher so the error path is unreachable,
// but keep the checked call rather than the fast one
func matchDistance(a *hash.Hash, b *hash.Hash) int {
	dist, err := a.Hamming(b)
	if err != nil {
		slog.Error("Error comparing hashes", "error", err)
		return int(^uint(0) >> 1)
	}
	return dist
}

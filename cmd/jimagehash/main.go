package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	jimagehash "github.com/diepinto30/JImageHash"
	"github.com/diepinto30/JImageHash/dhash"
	"github.com/diepinto30/JImageHash/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {

	flag.Usage = func() {
		msg := `
Example usage:
Compare two images
	jimagehash duplicate/image.jpg duplicate/image-copy.jpg
Find duplicates of target/image.jpg in path/to/images
	jimagehash target/image.jpg path/to/images
Output duplicate images found in path/to/images and other/path/to/images
	jimagehash path/to/images other/path/to/images
Find duplicates with a longer, stricter hash
	jimagehash -resolution 256 -precision triple -threshold 4 path/to/images
Read images from a file listing and output any duplicates found in a csv like format
	cat images.txt | jimagehash -o - > duplicates.csv`
		fmt.Fprintln(flag.CommandLine.Output(), "jimagehash is a program for discovering duplicate images by their difference hash")
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s [-r | -v | -m | -d | -o | -q | -resolution | -precision | -threshold] <images> [<images> ...] \n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintln(flag.CommandLine.Output(), msg)
	}

	var targets []string
	var output bool
	var quiet bool
	var recursive bool
	var verbose bool
	var move bool
	var delete bool
	var version bool
	var resolution int
	var threshold int
	var precisionName string

	flag.BoolVar(&output, "output", false, "Suppress info output and only output results. Intended to be used for piping output to a file or process")
	flag.BoolVar(&output, "o", false, "alias for -output")

	flag.BoolVar(&quiet, "quiet", false, "Suppress all output")
	flag.BoolVar(&quiet, "q", false, "alias for -quiet")

	flag.BoolVar(&recursive, "recursive", false, "Search for images in subdirectories of any target directories")
	flag.BoolVar(&recursive, "r", false, "alias for -recursive")

	flag.BoolVar(&verbose, "verbose", false, "Run application with info logging")
	flag.BoolVar(&verbose, "v", false, "alias for -verbose")

	flag.BoolVar(&move, "move", false, "Move duplicate images to a `duplicates` directory under the working directory")
	flag.BoolVar(&move, "m", false, "alias for -move")

	flag.BoolVar(&delete, "delete", false, "Delete duplicate images")
	flag.BoolVar(&delete, "d", false, "alias for -delete")

	flag.BoolVar(&version, "version", false, "Print the version and exit")

	flag.IntVar(&resolution, "resolution", 64, "Approximate hash length in bits, larger hashes track finer detail")

	flag.IntVar(&threshold, "threshold", 10, "Maximum hamming distance in bits for two images to count as duplicates")

	precisions := slices.Sorted(maps.Keys(dhash.Precisions))
	opts := strings.Join(precisions, ", ")
	flag.StringVar(&precisionName, "precision", "double", fmt.Sprintf("How many gradient directions to hash. Available options are %s", opts))

	flag.Parse()

	if version {
		fmt.Printf("jimagehash %s %s %s\n", utils.Version, utils.Branch, utils.Commit)
		return nil
	}

	args := flag.Args()
	if len(args) <= 0 {
		return errors.New("no arguments provided")
	} else if slices.Contains(args, "-") {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := scanner.Text()
			// This could be problematic if filepaths have spaces, a bit of an edge case
			// so I won't worry for now
			targets = append(targets, strings.Split(line, " ")...)
		}
	} else {
		targets = args
	}

	var logLevel = new(slog.LevelVar)
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(h))
	if verbose {
		logLevel.Set(slog.LevelInfo)
	} else {
		logLevel.Set(slog.LevelWarn)
	}

	precision, ok := dhash.Precisions[precisionName]
	if !ok {
		slog.Error("Invalid precision provided, falling back to double", "precision", precisionName)
		precision = dhash.Double
	}
	hasher, err := dhash.New(resolution, precision)
	if err != nil {
		return err
	}

	var files []string
	noDirs := true
	imgTarget := false
	for i, target := range targets {
		_, isImg, isDir := utils.ImageOrDir(target)
		if !isImg && !isDir {
			continue
		} else if isImg {
			if i == 0 {
				imgTarget = true
			}
			files = append(files, target)
		} else if isDir {
			noDirs = false
			images := utils.FindImages(target, recursive)
			files = append(files, images...)
		}
	}

	var duplicates [][]string
	var total int
	if len(files) <= 0 {
		return errors.New("no image files were found")
	} else if noDirs && len(files) == 2 {
		isDupe, results := jimagehash.Compare(hasher, threshold, files[0], files[1])
		if isDupe {
			results = append(results, files[0])
			duplicates = append(duplicates, results)
			total = 2
		}
	} else if imgTarget {
		isDupe, results := jimagehash.Compare(hasher, threshold, files[0], files[1:]...)
		if isDupe {
			duplicates = append(duplicates, results)
			total = len(results)
		}
	} else {
		duplicates, total, err = jimagehash.Duplicates(files, hasher, threshold)
		if err != nil {
			return err
		}
	}

	defaultWriter := os.Stdout
	if output || quiet {
		// io.Discard seems to be of the proper type but does not compile
		// so I'm doing this instead
		defaultWriter, _ = os.Open(os.DevNull)
		defer defaultWriter.Close()
	}
	if total == 0 {
		fmt.Fprintln(defaultWriter, "No duplicate images found")
		return nil
	}
	fmt.Fprintf(defaultWriter, "Found %d duplicate images\n", total)

	var w *csv.Writer
	if quiet {
		w = csv.NewWriter(defaultWriter)
	} else {
		w = csv.NewWriter(os.Stdout)
	}
	for _, group := range duplicates {
		if err := w.Write(group); err != nil {
			slog.Error("Error writing record to csv", "error", err)
		}
	}
	w.Flush()

	if move {
		dupeDir := "duplicates"
		os.Mkdir(dupeDir, 0750)
		for _, files := range duplicates {
			if err := utils.MoveFiles(files, dupeDir); err != nil {
				slog.Error("Error moving files", "error", err)
			}
		}
	} else if delete {
		for _, files := range duplicates {
			if err := utils.DeleteFiles(files); err != nil {
				slog.Error("Error deleting files", "error", err)
			}
		}
	}
	return nil
}

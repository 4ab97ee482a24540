package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/chrissnell/basinview/internal/artifact"
	"github.com/chrissnell/basinview/internal/log"
	"github.com/chrissnell/basinview/internal/storage"
)

// artifactDirs are the per-source directories an artifact tree is made of
var artifactDirs = map[string]artifact.Kind{
	"Geojsons":   artifact.Boundary,
	"Plots":      artifact.ChangeImage,
	"CSVs":       artifact.ChangeTable,
	"Timelapses": artifact.Timelapse,
}

func main() {
	var (
		root    = flag.String("root", "./Data", "Root of the artifact tree to import")
		connStr = flag.String("connection-string", "", "PostgreSQL connection string (required)")
		dryRun  = flag.Bool("dry-run", false, "List the artifacts that would be imported")
		debug   = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if *connStr == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Usage: %s -root <dir> -connection-string <dsn>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	paths, err := findArtifacts(os.DirFS(*root))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning %s: %v\n", *root, err)
		os.Exit(1)
	}
	fmt.Printf("Found %d artifacts under %s\n", len(paths), *root)

	if *dryRun {
		for _, p := range paths {
			fmt.Printf("  %s\n", p)
		}
		fmt.Println("DRY RUN complete - nothing imported")
		return
	}

	store, err := storage.NewDatabaseStore(*connStr, log.Named("import"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	if err := store.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating artifact table: %v\n", err)
		os.Exit(1)
	}

	fsys := os.DirFS(*root)
	for i, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", p, err)
			os.Exit(1)
		}
		if err := store.Put(p, data); err != nil {
			fmt.Fprintf(os.Stderr, "Error importing %s: %v\n", p, err)
			os.Exit(1)
		}
		if (i+1)%100 == 0 {
			fmt.Printf("  imported %d/%d\n", i+1, len(paths))
		}
	}

	fmt.Printf("Import completed successfully! %d artifacts stored.\n", len(paths))
}

// findArtifacts returns the path of every artifact under a known data source
// directory, in the same form artifact.Resolve produces
func findArtifacts(fsys fs.FS) ([]string, error) {
	var paths []string
	for _, source := range artifact.DataSources() {
		err := fs.WalkDir(fsys, source.String(), func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			dir := path.Base(path.Dir(p))
			kind, ok := artifactDirs[dir]
			if !ok || !strings.HasSuffix(p, extension(kind)) {
				log.Debugf("skipping %s", p)
				return nil
			}
			paths = append(paths, p)
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return paths, nil
}

func extension(kind artifact.Kind) string {
	switch kind {
	case artifact.Boundary:
		return ".geojson"
	case artifact.ChangeImage:
		return ".png"
	case artifact.ChangeTable:
		return ".csv"
	}
	return ".mp4"
}

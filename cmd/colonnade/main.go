// Package main implements the colonnade command line tool.
// It exports row records as table snapshots into object storage and
// inspects snapshots registered in the catalog.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/colonnade/colonnade/internal/build"
	"github.com/colonnade/colonnade/internal/catalog"
	"github.com/colonnade/colonnade/internal/config"
	"github.com/colonnade/colonnade/internal/storage"
	"github.com/colonnade/colonnade/internal/table"
	"github.com/colonnade/colonnade/pkg/types"
)

var (
	version = "dev"
	commit  = "unknown"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
	With().Timestamp().Str("component", "cli").Logger()

func main() {
	_ = godotenv.Load()

	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "export":
		err = runExport(args[1:])
	case "inspect":
		err = runInspect(args[1:])
	case "list":
		err = runList(args[1:])
	case "version":
		fmt.Printf("colonnade version %s (commit: %s)\n", version, commit)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Colonnade - Schema-Driven Columnar Tables\n\n")
	fmt.Fprintf(os.Stderr, "Usage: colonnade <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  export    Build a table from row records and store a snapshot\n")
	fmt.Fprintf(os.Stderr, "  inspect   Reconstruct a stored snapshot and print a summary\n")
	fmt.Fprintf(os.Stderr, "  list      List snapshots registered in the catalog\n")
	fmt.Fprintf(os.Stderr, "  version   Show version information\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  colonnade export --input trials.json --name trials\n")
	fmt.Fprintf(os.Stderr, "  colonnade inspect --name trials --rows 5\n")
	fmt.Fprintf(os.Stderr, "  colonnade list --config /etc/colonnade/config.yaml\n")
	fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
	fmt.Fprintf(os.Stderr, "  COLONNADE_DATA_DIR       Base directory for data files\n")
	fmt.Fprintf(os.Stderr, "  COLONNADE_STORAGE_TYPE   Storage type (local, s3)\n")
	fmt.Fprintf(os.Stderr, "  COLONNADE_S3_BUCKET      S3 bucket for snapshots\n")
}

// recordFile is the input format for export: one table,
// row-oriented records.
type recordFile struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Rows        []map[string]any `json:"rows"`
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to configuration file (YAML or JSON)")
	input := fs.String("input", "", "Path to JSON record file")
	name := fs.String("name", "", "Table name (overrides the record file)")
	fs.Parse(args)

	if *input == "" {
		return fmt.Errorf("export: --input is required")
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		return fmt.Errorf("export: reading %s: %w", *input, err)
	}
	var rf recordFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return fmt.Errorf("export: parsing %s: %w", *input, err)
	}
	if *name != "" {
		rf.Name = *name
	}
	if rf.Name == "" {
		return fmt.Errorf("export: table name missing (set --name or the record file's name)")
	}

	t, err := tableFromRecords(&rf)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}

	g, err := build.BuildTable(t)
	if err != nil {
		return err
	}
	payload, err := build.EncodeJSON(g)
	if err != nil {
		return err
	}
	frame := storage.EncodeSnapshot(payload)

	objectPath := cfg.Storage.Prefix + t.Name() + ".snap"
	if err := store.Put(ctx, objectPath, frame); err != nil {
		return err
	}

	checksum, err := storage.SnapshotChecksum(frame)
	if err != nil {
		return err
	}

	cat, err := catalog.NewCatalog(cfg.CatalogPath())
	if err != nil {
		return err
	}
	defer cat.Close()

	rec := &catalog.SnapshotRecord{
		ObjectID:   t.ObjectID(),
		Name:       t.Name(),
		ObjectPath: objectPath,
		Checksum:   checksum,
		RowCount:   int64(t.Len()),
		CreatedAt:  time.Now().UTC(),
	}
	if err := cat.Register(ctx, rec); err != nil {
		return err
	}

	logger.Info().
		Str("table", t.Name()).
		Str("object_path", objectPath).
		Int("rows", t.Len()).
		Int("columns", len(t.Colnames())).
		Msg("snapshot exported")
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to configuration file (YAML or JSON)")
	name := fs.String("name", "", "Table name to inspect")
	rows := fs.Int("rows", 0, "Number of leading rows to print")
	fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("inspect: --name is required")
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	cat, err := catalog.NewCatalog(cfg.CatalogPath())
	if err != nil {
		return err
	}
	defer cat.Close()

	rec, err := cat.Get(ctx, *name)
	if err != nil {
		return err
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	frame, err := store.Get(ctx, rec.ObjectPath)
	if err != nil {
		return err
	}
	payload, err := storage.DecodeSnapshot(frame)
	if err != nil {
		return err
	}
	g, err := build.DecodeJSON(payload)
	if err != nil {
		return err
	}
	t, err := build.ReconstructTable(g, build.DefaultTypeMap())
	if err != nil {
		return err
	}

	fmt.Printf("Table:       %s\n", t.Name())
	fmt.Printf("Description: %s\n", t.Description())
	fmt.Printf("Object ID:   %s\n", t.ObjectID())
	fmt.Printf("Rows:        %d\n", t.Len())
	fmt.Printf("Columns:     %v\n", t.Colnames())

	n := *rows
	if n > t.Len() {
		n = t.Len()
	}
	for i := 0; i < n; i++ {
		vals, err := t.RowValues(types.At(i), true)
		if err != nil {
			return err
		}
		fmt.Printf("  row %d: %v\n", i, vals)
	}
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to configuration file (YAML or JSON)")
	fs.Parse(args)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return err
	}

	cat, err := catalog.NewCatalog(cfg.CatalogPath())
	if err != nil {
		return err
	}
	defer cat.Close()

	recs, err := cat.List(context.Background())
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("no snapshots registered")
		return nil
	}
	for _, rec := range recs {
		fmt.Printf("%-24s %8d rows  %s  %s\n",
			rec.Name, rec.RowCount, rec.CreatedAt.Format(time.RFC3339), rec.ObjectPath)
	}
	return nil
}

// loadConfig loads configuration from file, environment, and defaults.
func loadConfig(configFile string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.ObjectStorage, error) {
	switch cfg.Storage.Type {
	case "s3":
		return storage.NewS3Storage(ctx, cfg.Storage.S3.Bucket, storage.S3Config{
			Region:       cfg.Storage.S3.Region,
			Endpoint:     cfg.Storage.S3.Endpoint,
			UsePathStyle: cfg.Storage.S3.UsePathStyle,
		})
	default:
		return storage.NewLocalStorage(cfg.Storage.Path)
	}
}

// tableFromRecords assembles a frame from row records and converts it
// into a table. Records may carry an explicit "id" key; otherwise row
// positions are used.
func tableFromRecords(rf *recordFile) (*table.DynamicTable, error) {
	f := &table.Frame{Name: rf.Name, Cells: make(map[string][]any)}

	for _, row := range rf.Rows {
		for key := range row {
			if key == "id" {
				continue
			}
			if _, ok := f.Cells[key]; !ok {
				f.Colnames = append(f.Colnames, key)
				f.Cells[key] = nil
			}
		}
	}
	sort.Strings(f.Colnames)

	for i, row := range rf.Rows {
		id := int64(i)
		if raw, ok := row["id"]; ok {
			switch v := raw.(type) {
			case float64:
				id = int64(v)
			case int64:
				id = v
			default:
				return nil, fmt.Errorf("export: row %d has non-integer id %v", i, raw)
			}
		}
		f.IDs = append(f.IDs, id)
		for _, name := range f.Colnames {
			val, ok := row[name]
			if !ok {
				return nil, fmt.Errorf("export: row %d is missing column '%s'", i, name)
			}
			f.Cells[name] = append(f.Cells[name], val)
		}
	}

	return table.FromFrame(rf.Name, rf.Description, f)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/sandeshbnataraj/gitlab-jar-manager/cache"
	"github.com/sandeshbnataraj/gitlab-jar-manager/config"
	"github.com/sandeshbnataraj/gitlab-jar-manager/logger"
	"github.com/sandeshbnataraj/gitlab-jar-manager/processor"
	"github.com/sandeshbnataraj/gitlab-jar-manager/registry"
	"github.com/sandeshbnataraj/gitlab-jar-manager/walker"
)

const (
	// Value of an operation flag given without a path
	useConfiguredPath = "<configured>"
	// Value of --journal-dump given without a prefix
	allEntries = "<all>"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	uploadAll   string
	upload      string
	downloadAll string
	download    string

	dryRun       bool
	logLevel     string
	registryType string
	gitlabURL    string
	projectID    int
	groupID      string
	manifestName string
	journalPath  string
	journalDump  string
	help         bool
}

func newFlagSet(f *cliFlags) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("gitlab-jar-manager", pflag.ContinueOnError)
	flagSet.SortFlags = false
	// Usage is printed by printHelp
	flagSet.Usage = func() {}

	flagSet.StringVarP(&f.upload, "upload", "u", "", "Upload the jars of one folder (default path: JAR_FOLDER_PATH)")
	flagSet.StringVarP(&f.uploadAll, "upload-all", "a", "", "Upload the jars of a folder and its immediate subfolders")
	flagSet.StringVarP(&f.download, "download", "d", "", "Download the jars listed in one folder's manifest (default path: DOWNLOAD_JAR_PATH)")
	flagSet.StringVarP(&f.downloadAll, "download-all", "o", "", "Download for a folder and its immediate subfolders")
	for _, op := range operationOrder {
		flagSet.Lookup(op.flag).NoOptDefVal = useConfiguredPath
	}

	flagSet.BoolVar(&f.dryRun, "dry-run", false, "Log what would be transferred without changing anything (env: DRY_RUN)")
	flagSet.StringVar(&f.logLevel, "log-level", "", "Log level: silent, error, info, debug, verbose (env: LOG_LEVEL)")
	flagSet.StringVar(&f.registryType, "registry-type", "", "Registry backend: gitlab, s3, ftp (env: REGISTRY_TYPE)")
	flagSet.StringVar(&f.gitlabURL, "gitlab-url", "", "GitLab base URL (env: GITLAB_URL)")
	flagSet.IntVar(&f.projectID, "project-id", 0, "GitLab project id (env: GITLAB_PROJECT_ID)")
	flagSet.StringVar(&f.groupID, "group-id", "", "Maven group id for uploaded jars (env: DEFAULT_GROUP_ID)")
	flagSet.StringVar(&f.manifestName, "manifest-name", "", "Manifest file name (env: MANIFEST_NAME)")
	flagSet.StringVar(&f.journalPath, "journal-path", "", "Enable the bbolt transfer journal at this path (env: JOURNAL_BBOLT_PATH)")
	flagSet.StringVar(&f.journalDump, "journal-dump", "", "Print journal entries as JSON, optionally only keys with this prefix")
	flagSet.Lookup("journal-dump").NoOptDefVal = allEntries
	flagSet.BoolVarP(&f.help, "help", "h", false, "Show help message")

	return flagSet
}

func run(args []string) error {
	var flags cliFlags
	flagSet := newFlagSet(&flags)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if flags.help {
		printHelp(flagSet)
		return nil
	}

	ops, err := resolveOperations(flagSet, flagSet.Args())
	if err != nil {
		return err
	}
	dump := flagSet.Changed("journal-dump")
	if len(ops) == 0 && !dump {
		printHelp(flagSet)
		return nil
	}

	// Load base configuration from .env and environment variables
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("loading config from environment: %w", err)
	}

	// Override with CLI flags if provided
	applyFlags(cfg, flagSet, &flags)

	if len(ops) > 0 {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration validation error: %w", err)
		}
	} else if err := cfg.Journal.Validate(); err != nil {
		return fmt.Errorf("configuration validation error: journal config error: %w", err)
	}

	// Keep stdout clean for the JSON dump
	var log logger.Logger
	if dump {
		log = logger.NewLoggerWithWriter(&cfg.Logger, os.Stderr)
	} else {
		log = logger.NewLogger(&cfg.Logger)
	}
	log.Debug("Configuration loaded and validated")

	journal, err := cache.CreateCache(&cfg.Journal)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	if journal != nil {
		defer func() {
			if err := journal.Close(); err != nil {
				log.Error("Error closing journal: %v", err)
			}
		}()
		log.Info("Journal enabled: %s", cfg.Journal.Bbolt.Path)
	}

	if len(ops) > 0 {
		if err := runOperations(cfg, ops, journal, log); err != nil {
			return err
		}
	}

	if dump {
		if journal == nil {
			return fmt.Errorf("journal is disabled (set JOURNAL_TYPE=bbolt or --journal-path)")
		}
		prefix := flags.journalDump
		if prefix == allEntries {
			prefix = ""
		}
		return dumpJournal(os.Stdout, journal, prefix)
	}
	return nil
}

func runOperations(cfg *config.AppConfig, ops []operation, journal cache.CacheProvider, log logger.Logger) error {
	reg, err := registry.CreateRegistry(&cfg.Registry)
	if err != nil {
		return fmt.Errorf("failed to create registry: %w", err)
	}
	defer func() {
		if err := reg.Close(); err != nil {
			log.Error("Error closing registry: %v", err)
		}
	}()
	log.Info("Registry initialized: type=%s", cfg.Registry.RegistryType)

	if cfg.DryRun {
		log.Info("Running in DRY-RUN mode - nothing will be transferred or written")
	}
	runner := processor.NewRunner(afero.NewOsFs(), reg, journal, log, cfg.Sync, cfg.DryRun)

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- executeOperations(ctx, runner, withDefaultPaths(ops, cfg.Sync), log)
	}()

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info("Received signal %v, stopping after the current file...", sig)
		cancel()

		err := <-errChan
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		log.Info("Shutdown completed")
		return nil
	}
}

func executeOperations(ctx context.Context, runner *processor.Runner, ops []operation, log logger.Logger) error {
	for _, op := range ops {
		log.Debug("Running --%s on %s", op.flag, op.root)
		if op.upload {
			if _, err := runner.Upload(ctx, op.root, op.mode); err != nil {
				return fmt.Errorf("--%s %s: %w", op.flag, op.root, err)
			}
		} else {
			if _, err := runner.Download(ctx, op.root, op.mode); err != nil {
				return fmt.Errorf("--%s %s: %w", op.flag, op.root, err)
			}
		}
	}
	return nil
}

// operation is one requested transfer. root is empty until defaults are applied.
type operation struct {
	flag   string
	upload bool
	mode   walker.Mode
	root   string
}

// operationOrder is the order operations run in, whatever the order on the command line
var operationOrder = []operation{
	{flag: "upload-all", upload: true, mode: walker.OneLevel},
	{flag: "upload", upload: true, mode: walker.Shallow},
	{flag: "download-all", upload: false, mode: walker.OneLevel},
	{flag: "download", upload: false, mode: walker.Shallow},
}

// resolveOperations returns the requested operations in run order. A single
// positional argument is the path of the one operation flag given without
// a value.
func resolveOperations(flagSet *pflag.FlagSet, args []string) ([]operation, error) {
	var ops []operation
	var valueless []int

	for _, op := range operationOrder {
		if !flagSet.Changed(op.flag) {
			continue
		}
		op.root = flagSet.Lookup(op.flag).Value.String()
		if op.root == useConfiguredPath {
			op.root = ""
			valueless = append(valueless, len(ops))
		}
		ops = append(ops, op)
	}

	if len(ops) == 0 || len(args) == 0 {
		return ops, nil
	}
	if len(args) > 1 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
	}
	if len(valueless) != 1 {
		return nil, fmt.Errorf("cannot tell which operation path %q belongs to; use --flag=path", args[0])
	}
	ops[valueless[0]].root = args[0]
	return ops, nil
}

func withDefaultPaths(ops []operation, sync config.SyncConfig) []operation {
	out := make([]operation, len(ops))
	for i, op := range ops {
		if op.root == "" {
			if op.upload {
				op.root = sync.UploadPath
			} else {
				op.root = sync.DownloadPath
			}
		}
		out[i] = op
	}
	return out
}

func applyFlags(cfg *config.AppConfig, flagSet *pflag.FlagSet, flags *cliFlags) {
	// General
	if flagSet.Changed("dry-run") {
		cfg.DryRun = flags.dryRun
	}

	// Logger
	if flags.logLevel != "" {
		cfg.Logger.Level = config.LogLevel(flags.logLevel)
	}

	// Registry
	if flags.registryType != "" {
		cfg.Registry.RegistryType = config.RegistryType(flags.registryType)
	}
	if flags.gitlabURL != "" {
		cfg.Registry.GitLab.BaseURL = flags.gitlabURL
	}
	if flagSet.Changed("project-id") {
		cfg.Registry.GitLab.ProjectID = flags.projectID
	}

	// Sync
	if flags.groupID != "" {
		cfg.Sync.GroupID = flags.groupID
	}
	if flags.manifestName != "" {
		cfg.Sync.ManifestName = flags.manifestName
	}

	// Journal
	if flags.journalPath != "" {
		cfg.Journal.JournalType = config.JournalTypeBbolt
		cfg.Journal.Bbolt.Path = flags.journalPath
	}
}

func dumpJournal(w io.Writer, journal cache.CacheProvider, prefix string) error {
	var (
		entries interface{}
		err     error
	)
	if prefix == "" {
		entries, err = journal.DumpAll()
	} else {
		entries, err = journal.GetByPrefix(prefix)
	}
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(entries)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Println("GitLab Maven JAR Manager")
	fmt.Println()
	fmt.Println("Usage: gitlab-jar-manager [operation] [path] [options]")
	fmt.Println()
	fmt.Println("Uploads jars to a Maven registry and records them in a per-folder library.json,")
	fmt.Println("or downloads the jars a library.json lists. Operations run in the order")
	fmt.Println("upload-all, upload, download-all, download.")
	fmt.Println()
	fmt.Println("Configuration can be provided via a .env file, environment variables or command-line flags.")
	fmt.Println("Command-line flags take precedence over environment variables.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Print(flagSet.FlagUsages())
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  gitlab-jar-manager -u ./lib")
	fmt.Println("  gitlab-jar-manager --download-all=/app/lib --log-level=debug")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  PRIVATE_TOKEN            - GitLab private token (required for gitlab)")
	fmt.Println("  REGISTRY_TYPE            - Registry backend (gitlab, s3, ftp)")
	fmt.Println("  GITLAB_URL               - GitLab base URL")
	fmt.Println("  GITLAB_PROJECT_ID        - GitLab project id")
	fmt.Println("  REGISTRY_TIMEOUT_SECONDS - Request timeout in seconds (0 = none)")
	fmt.Println("  REGISTRY_MAX_RPS         - Max requests per second (0 = no limit)")
	fmt.Println("  S3_REGION                - S3 region")
	fmt.Println("  S3_BUCKET                - S3 bucket name")
	fmt.Println("  S3_ACCESS_KEY_ID         - S3 access key ID")
	fmt.Println("  S3_SECRET_ACCESS_KEY     - S3 secret access key")
	fmt.Println("  S3_ENDPOINT              - S3 endpoint URL")
	fmt.Println("  S3_PREFIX                - Key prefix inside the bucket")
	fmt.Println("  FTP_HOST                 - FTP server host")
	fmt.Println("  FTP_PORT                 - FTP server port")
	fmt.Println("  FTP_USERNAME             - FTP username")
	fmt.Println("  FTP_PASSWORD             - FTP password")
	fmt.Println("  FTP_BASE_PATH            - FTP base path")
	fmt.Println("  FTP_USE_TLS              - Use FTPS (true/false)")
	fmt.Println("  DEFAULT_GROUP_ID         - Maven group id")
	fmt.Println("  JAR_FOLDER_PATH          - Default upload folder")
	fmt.Println("  DOWNLOAD_JAR_PATH        - Default download folder")
	fmt.Println("  MANIFEST_NAME            - Manifest file name")
	fmt.Println("  ARTIFACT_ROOT            - Value of the root field in new records")
	fmt.Println("  ARTIFACT_EXTENSION       - Artifact file extension")
	fmt.Println("  RECORD_FAILED_UPLOADS    - Keep records of failed uploads (true/false)")
	fmt.Println("  DELETE_AFTER_UPLOAD      - Delete jars after upload (true/false)")
	fmt.Println("  DOWNLOAD_CHUNK_SIZE      - Download buffer size in bytes")
	fmt.Println("  DRY_RUN                  - Run in dry-run mode (true/false)")
	fmt.Println("  LOG_LEVEL                - Log level (silent, error, info, debug, verbose)")
	fmt.Println("  JOURNAL_TYPE             - Transfer journal (none, bbolt)")
	fmt.Println("  JOURNAL_BBOLT_PATH       - Path to journal database")
	fmt.Println("  JOURNAL_BBOLT_BUCKET     - Journal bucket name")
	fmt.Println("  JOURNAL_BBOLT_NO_SYNC    - Disable fsync for the journal (true/false)")
}

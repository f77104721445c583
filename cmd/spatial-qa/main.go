package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vitebski/spatial-qa/internal/admissible"
	"github.com/vitebski/spatial-qa/internal/analyzer"
	"github.com/vitebski/spatial-qa/internal/checker"
	"github.com/vitebski/spatial-qa/internal/classifier"
	"github.com/vitebski/spatial-qa/internal/config"
	"github.com/vitebski/spatial-qa/internal/connector"
	"github.com/vitebski/spatial-qa/internal/dialect"
	"github.com/vitebski/spatial-qa/internal/generator"
	"github.com/vitebski/spatial-qa/internal/i18n"
	"github.com/vitebski/spatial-qa/internal/report"
	"github.com/vitebski/spatial-qa/internal/results"
	"github.com/vitebski/spatial-qa/internal/scanner"
	"github.com/vitebski/spatial-qa/internal/utils"
)

func main() {
	var (
		cfgFile string
		envFile string
	)

	rootCmd := &cobra.Command{
		Use:   "spatial-qa",
		Short: "Quality checks for the geometries of a spatial database",
		Long: `Spatial QA

Scans the tables of a PostGIS or MySQL schema for invalid, duplicated,
multipart and NULL geometries, and classifies the intersections between
tables against a map of admissible table pairs.`,
		Run: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logger := utils.SetupLogging(logLevel)

			utils.LoadEnvironmentVariables(envFile, logger)

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				logger.Errorf("Invalid configuration: %v", err)
				os.Exit(1)
			}
			logger = utils.SetupLogging(cfg.LogLevel)

			if !runScan(cfg, logger) {
				os.Exit(1)
			}
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Path to a YAML config file")
	flags.StringVarP(&envFile, "env-file", "e", ".env", "Path to .env file")
	flags.String("dialect", "", "Database dialect: postgis or mysql (default: postgis)")
	flags.StringP("host", "H", "", "Database host (default: localhost)")
	flags.StringP("port", "P", "", "Database port (default: 5432 for postgis, 3306 for mysql)")
	flags.StringP("database", "d", "", "Database name")
	flags.StringP("user", "u", "", "Database user")
	flags.StringP("password", "p", "", "Database password")
	flags.StringP("schema", "s", "", "Schema to scan (default: public)")
	flags.StringSliceP("tables", "t", nil, "Tables to scan, comma separated (default: every table of the schema)")
	flags.StringP("output", "o", "", "Output directory (default: output)")
	flags.StringP("rule", "r", "", "Rule to run: invalid, duplicate, multipart, null, intersect or all (default: all)")
	flags.String("summary", "", "Summary file name inside the output directory (default: summary.txt)")
	flags.StringP("admissibles", "a", "", "JSON file mapping each table to the tables it may intersect")
	flags.String("id-column", "", "Feature id column (default: id)")
	flags.String("geom-column", "", "Geometry column (default: geom)")
	flags.IntP("workers", "w", 1, "Number of tables scanned in parallel")
	flags.StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
	flags.String("language", "", "Language of messages and CSV headers: en or es (default: en)")

	rootCmd.AddCommand(newFixturesCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// runScan connects, scans and writes every report. It returns false on a
// fatal error.
func runScan(cfg *config.Config, logger *logrus.Logger) bool {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := dialect.New(cfg.Dialect, cfg.Columns())
	if err != nil {
		logger.Error(err)
		return false
	}

	db := connector.NewDatabaseConnector(cfg.Host, cfg.User, cfg.Password, cfg.Database, cfg.Port, d, logger)
	if !utils.ValidateConnectionParams(db.Host, db.User, db.Password, db.Database, db.Port, logger) {
		return false
	}

	admissibles, err := admissible.Load(cfg.Admissibles)
	if err != nil {
		logger.Errorf("Failed to load admissible intersections: %v", err)
		return false
	}

	if err := db.Connect(ctx); err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		return false
	}
	defer db.Disconnect()

	startTime := time.Now()

	tables, err := listTables(ctx, db, d, cfg, logger)
	if err != nil {
		logger.Errorf("Failed to analyze schema: %v", err)
		return false
	}
	if len(tables) == 0 {
		logger.Warnf("No tables found in schema %s", cfg.Schema)
	}

	files, err := report.NewFileManager(cfg.Output, logger)
	if err != nil {
		logger.Errorf("Failed to create output directory: %v", err)
		return false
	}
	catalog := i18n.NewCatalog(cfg.Language)
	writer := report.NewWriter(files, catalog, logger)

	rule := cfg.ParsedRule()
	ds := scanner.NewDatabaseScanner(
		cfg.Schema,
		tables,
		rule,
		func(ctx context.Context) (scanner.Session, error) {
			s, err := db.OpenSession(ctx)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		checker.NewChecker(d, logger),
		classifier.NewClassifier(d, admissibles, catalog, results.NewAggregator(), logger),
		cfg.Workers,
		logger,
	)

	logger.Infof("Scanning %d tables of %s with rule %s", len(tables), cfg.Schema, rule)
	if err := ds.ScanDatabase(ctx); err != nil {
		logger.Errorf("Scan aborted: %v", err)
		return false
	}

	summary := ds.Summary(strings.Join(os.Args, " "), startTime, time.Now())
	tableResults := ds.TableResults()

	if err := writer.WriteResults(scanner.SelectedRules(rule), tableResults); err != nil {
		logger.Errorf("Failed to write results: %v", err)
		return false
	}
	if err := writer.WriteSummary(cfg.Summary, summary); err != nil {
		logger.Errorf("Failed to write summary: %v", err)
		return false
	}

	report.PrintSummary(os.Stdout, summary, tableResults, catalog)
	return true
}

// listTables introspects the schema on a short lived session
func listTables(ctx context.Context, db *connector.DatabaseConnector, d dialect.Dialect, cfg *config.Config, logger *logrus.Logger) ([]string, error) {
	session, err := db.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	schemaAnalyzer := analyzer.NewSchemaAnalyzer(session, d, cfg.Schema, logger)
	if err := schemaAnalyzer.AnalyzeSchema(ctx); err != nil {
		return nil, err
	}
	return schemaAnalyzer.ResolveTables(cfg.Tables)
}

func newFixturesCommand() *cobra.Command {
	var (
		dialectName string
		schema      string
		features    int
		out         string
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Write a SQL script that creates tables with known geometry problems",
		Run: func(cmd *cobra.Command, args []string) {
			logger := utils.SetupLogging(logLevel)
			logger.SetOutput(os.Stderr)

			columns := dialect.DefaultColumns()
			d, err := dialect.New(dialectName, columns)
			if err != nil {
				logger.Error(err)
				os.Exit(1)
			}

			script := generator.NewFixtureGenerator(d, columns, logger).GenerateScript(schema, features)

			if out == "" || out == "-" {
				fmt.Print(script)
				return
			}
			if err := os.WriteFile(out, []byte(script), 0o644); err != nil {
				logger.Errorf("Failed to write %s: %v", out, err)
				os.Exit(1)
			}
			logger.Infof("Fixture script written to %s", out)
		},
	}

	cmd.Flags().StringVar(&dialectName, "dialect", "postgis", "Database dialect: postgis or mysql")
	cmd.Flags().StringVarP(&schema, "schema", "s", "public", "Schema the fixture tables are created in")
	cmd.Flags().IntVarP(&features, "features", "f", 10, "Random features per table")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")

	return cmd
}

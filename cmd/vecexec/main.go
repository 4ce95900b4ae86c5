// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/daviszhen/vecexec/pkg/catalog"
	"github.com/daviszhen/vecexec/pkg/compute"
	"github.com/daviszhen/vecexec/pkg/parser"
	"github.com/daviszhen/vecexec/pkg/storage"
	"github.com/daviszhen/vecexec/pkg/util"
)

func init() {
	cobra.OnInitialize(loadConfig)
	initBuildCmd()
}

var runCfg = util.DefaultConfig()

///root cmd

var info = "vecexec builds indexes over tables loaded from csv or parquet"
var RootCmd = &cobra.Command{
	Use:          "vecexec",
	Short:        info,
	Long:         info,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("use vecexec --help or -h")
	},
}

///build cmd

type buildArgs struct {
	schemaPath string
	dataPath   string
	dataFormat string
	table      string
	header     bool
	delimiter  string
	nullString string
	index      string
}

var buildFlags buildArgs

var buildInfo = "create a table, load its data and run CREATE INDEX"
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: buildInfo,
	Long:  buildInfo,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initBuildCfg(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return runBuild(ctx, runCfg, &buildFlags)
	},
}

func initBuildCmd() {
	RootCmd.AddCommand(buildCmd)
	flags := buildCmd.Flags()
	flags.StringVar(&buildFlags.schemaPath, "schema", "", "file with the CREATE TABLE statements")
	flags.StringVar(&buildFlags.table, "table", "", "table the data is loaded into")
	flags.StringVar(&buildFlags.dataPath, "data_path", "", "data file of the table")
	flags.StringVar(&buildFlags.dataFormat, "data_format", "", "data format. csv, parquet. default by file extension")
	flags.BoolVar(&buildFlags.header, "header", false, "the csv file has a head line")
	flags.StringVar(&buildFlags.delimiter, "delimiter", ",", "csv field delimiter")
	flags.StringVar(&buildFlags.nullString, "null_string", "", "csv field read as NULL")
	flags.StringVar(&buildFlags.index, "index", "", "CREATE INDEX statement")
	flags.Int("threads", 0, "build threads")
	flags.String("null_policy", "", "NULL key policy. skip, reject")
	flags.Bool("print_plan", false, "print the create index plan")
	flags.Bool("show_raw", false, "log every scanned chunk")
	flags.Int("max_scan_rows", 0, "scan at most this many rows per pipeline")
	flags.String("log_level", "", "log level")

	_ = viper.BindPFlag("build.threads", flags.Lookup("threads"))
	_ = viper.BindPFlag("build.nullPolicy", flags.Lookup("null_policy"))
	_ = viper.BindPFlag("debug.printPlan", flags.Lookup("print_plan"))
	_ = viper.BindPFlag("debug.showRaw", flags.Lookup("show_raw"))
	_ = viper.BindPFlag("debug.maxScanRows", flags.Lookup("max_scan_rows"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log_level"))
}

// initBuildCfg overrides the config file with the flags given.
func initBuildCfg() error {
	if viper.IsSet("build.threads") && viper.GetInt("build.threads") != 0 {
		runCfg.Build.Threads = viper.GetInt("build.threads")
	}
	if s := viper.GetString("build.nullPolicy"); s != "" {
		runCfg.Build.NullPolicy = util.NullPolicy(s)
	}
	if viper.GetBool("debug.printPlan") {
		runCfg.Debug.PrintPlan = true
	}
	if viper.GetBool("debug.showRaw") {
		runCfg.Debug.ShowRaw = true
	}
	if n := viper.GetInt("debug.maxScanRows"); n != 0 {
		runCfg.Debug.MaxScanRows = n
	}
	if s := viper.GetString("log.level"); s != "" {
		runCfg.Log.Level = s
	}
	if err := runCfg.Validate(); err != nil {
		return err
	}
	return util.InitLogger(runCfg.Log.Level)
}

func runBuild(ctx context.Context, cfg *util.Config, args *buildArgs) error {
	if args.index == "" {
		return errors.New("no CREATE INDEX statement. use --index")
	}
	builder := compute.NewBuilder(cfg, catalog.NewCatalog(cfg.Catalog))
	if args.schemaPath != "" {
		schema, err := os.ReadFile(args.schemaPath)
		if err != nil {
			return errors.Wrapf(err, "read schema %s", args.schemaPath)
		}
		if err = builder.RunDDL(ctx, string(schema)); err != nil {
			return err
		}
	}
	if args.dataPath != "" {
		if err := loadData(builder.Catalog(), args); err != nil {
			return err
		}
	}

	stmt, err := parser.ParseIndexStmt(args.index)
	if err != nil {
		return err
	}
	op, err := builder.BuildCreateIndex(stmt)
	if err != nil {
		return err
	}
	if op == nil {
		fmt.Printf("index %s exists\n", stmt.Idxname)
		return nil
	}
	if cfg.Debug.PrintPlan {
		fmt.Println(compute.Explain(op))
	}
	res, err := op.Build(ctx, cfg.Build.Threads)
	if err != nil {
		return err
	}
	fmt.Printf("index %s: %d rows appended, %d rows skipped, size %d, %v\n",
		op.Index().Name(), res.Appended, res.Skipped, op.Index().Count(), res.Duration)
	return nil
}

func loadData(cat *catalog.Catalog, args *buildArgs) error {
	if args.table == "" {
		return errors.New("no table for the data. use --table")
	}
	ent, err := cat.GetTable(args.table)
	if err != nil {
		return err
	}
	format := args.dataFormat
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(args.dataPath), ".")
	}
	var rows uint64
	switch strings.ToLower(format) {
	case "csv", "tbl":
		opts := storage.DefaultCSVOptions()
		opts.Header = args.header
		opts.NullString = args.nullString
		if len(args.delimiter) != 0 {
			opts.Delimiter = []rune(args.delimiter)[0]
		}
		rows, err = storage.LoadCSV(ent.GetStorage(), args.dataPath, opts)
	case "parquet":
		rows, err = storage.LoadParquet(ent.GetStorage(), args.dataPath)
	default:
		return errors.Newf("unknown data format %q", format)
	}
	if err != nil {
		return err
	}
	util.Info("load data",
		zap.String("table", ent.Name()),
		zap.String("path", args.dataPath),
		zap.Uint64("rows", rows))
	return nil
}

var defCfgFilePaths = []string{".", "etc"}
var cfgFileName = "vecexec.toml"

// loadConfig reads the first vecexec.toml found. Without one the
// defaults hold.
func loadConfig() {
	for _, dirPath := range defCfgFilePaths {
		fpath := filepath.Join(dirPath, cfgFileName)
		if !util.FileIsValid(fpath) {
			continue
		}
		cfg, err := util.LoadConfig(fpath)
		if err != nil {
			util.Error("load config file failed",
				zap.String("fpath", fpath),
				zap.Error(err))
			os.Exit(1)
		}
		runCfg = cfg
		return
	}
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

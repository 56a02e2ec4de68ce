/*
 * This file is part of the dense_labeler distribution (https://github.com/ecopia-map/dense_labeler),
 * derived from the Go Cesium Point Cloud Tiler (https://github.com/mfbonfigli/gocesiumtiler).
 * Copyright (c) 2019 Massimo Federico Bonfigli - m.federico.bonfigli@gmail.com
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 */

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/ecopia-map/dense_labeler/internal/config"
	"github.com/ecopia-map/dense_labeler/internal/dataset"
	"github.com/ecopia-map/dense_labeler/internal/io"
	"github.com/ecopia-map/dense_labeler/internal/labeler"
	"github.com/ecopia-map/dense_labeler/internal/predictor"
	"github.com/ecopia-map/dense_labeler/internal/reportdb"
	"github.com/ecopia-map/dense_labeler/pkg"
	"github.com/ecopia-map/dense_labeler/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/dense_labeler/tools"
)

const VERSION = "0.1.0"

const logo = `
     _                        _       _          _
  __| | ___ _ __  ___  ___   | | __ _| |__   ___| | ___ _ __
 / _  |/ _ \ '_ \/ __|/ _ \  | |/ _  | '_ \ / _ \ |/ _ \ '__|
| (_| |  __/ | | \__ \  __/  | | (_| | |_) |  __/ |  __/ |
 \__,_|\___|_| |_|___/\___|  |_|\__,_|_.__/ \___|_|\___|_|
  Sparse to dense point cloud labeling written in golang
  Copyright YYYY
`

func main() {
	defer glog.Flush()

	flagsGlobal := tools.ParseFlagsGlobal()
	glog.V(1).Infoln(tools.FmtJSONString(flagsGlobal))

	if *flagsGlobal.Help {
		showHelp()
		return
	}
	if *flagsGlobal.Version {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		glog.Exit("Please specify a subcommand [predict|interpolate].")
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case tools.CommandPredict:
		mainCommandPredict(args)
	case tools.CommandInterpolate:
		mainCommandInterpolate(args)
	default:
		glog.Exitf("Unrecognized command [%q]. Command must be one of [predict|interpolate]", cmd)
	}
}

func mainCommandPredict(args []string) {
	// Retrieve command line args
	flags := tools.ParseFlagsForCommandPredict(args)
	glog.V(1).Infoln("flags", tools.FmtJSONString(flags))

	if *flags.Help {
		showHelp()
		return
	}
	if *flags.Version {
		printVersion()
		return
	}

	setupLogger(&flags.LabelerFlags)
	loadEnv(*flags.EnvFile)

	hyperParams, err := config.LoadHyperParams(tools.ResolvePath(*flags.HyperParams))
	if err != nil {
		glog.Fatal("Error loading hyper parameters: ", err)
	}

	batchSize := *flags.BatchSize
	if batchSize <= 0 {
		batchSize = hyperParams.GetBatchSize()
	}

	// Put args inside a LabelerOptions struct
	opts := newLabelerOptions(tools.CommandPredict, &flags.LabelerFlags)
	opts.PredictOptions = &labeler.PredictOptions{
		Checkpoint:  tools.ResolvePath(*flags.Checkpoint),
		HyperParams: tools.ResolvePath(*flags.HyperParams),
		NumSamples:  *flags.NumSamples,
		BatchSize:   batchSize,
		NumPoint:    hyperParams.GetNumPoint(),
		BoxSize:     hyperParams.GetBoxSize(),
		UseColor:    hyperParams.GetUseColor(),
		NumClasses:  hyperParams.GetNumClasses(),
		Seed:        uint64(*flags.Seed),
	}

	// Validate LabelerOptions
	if msg, res := validateOptionsForCommandPredict(opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}
	glog.Infoln("predict options", tools.FmtJSONString(opts))

	loader := dataset.NewLoader(dataset.LoaderOptions{
		NumPoint:   opts.PredictOptions.NumPoint,
		BoxSize:    opts.PredictOptions.BoxSize,
		NumClasses: opts.PredictOptions.NumClasses,
		Seed:       opts.PredictOptions.Seed,
	})

	model, err := predictor.NewONNXPredictor(opts.PredictOptions.Checkpoint, predictor.ONNXOptions{
		SharedLibraryPath: os.Getenv(config.OnnxRuntimeLibraryEnv),
		NumClasses:        opts.PredictOptions.NumClasses,
	})
	if err != nil {
		glog.Fatal("Error loading checkpoint: ", err)
	}

	// Starts the labeler
	defer timeTrack(time.Now(), "predict")
	err = runLabeler(opts, func(ledger pkg.Ledger) labeler.ILabeler {
		return pkg.NewLabeler(
			tools.NewStandardFileFinder(),
			loader,
			model,
			io.NewStandardWriter(),
			std_algorithm_manager.NewAlgorithmManager(opts),
			ledger,
		)
	})
	if closeErr := model.Close(); closeErr != nil {
		glog.Warningln("Error closing checkpoint session: ", closeErr)
	}

	if err != nil {
		glog.Fatal("Error while labeling: ", err)
	} else {
		tools.LogOutput("Labeling Completed")
	}
}

func mainCommandInterpolate(args []string) {
	flags := tools.ParseFlagsForCommandInterpolate(args)
	glog.V(1).Infoln("flags", tools.FmtJSONString(flags))

	if *flags.Help {
		showHelp()
		return
	}
	if *flags.Version {
		printVersion()
		return
	}

	setupLogger(&flags.LabelerFlags)
	loadEnv(*flags.EnvFile)

	opts := newLabelerOptions(tools.CommandInterpolate, &flags.LabelerFlags)
	opts.InterpolateOptions = &labeler.InterpolateOptions{
		Sparse: tools.ResolvePath(*flags.Sparse),
	}

	if msg, res := validateOptionsForCommandInterpolate(opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}
	glog.Infoln("interpolate options", tools.FmtJSONString(opts))

	defer timeTrack(time.Now(), "interpolate")
	err := runLabeler(opts, func(ledger pkg.Ledger) labeler.ILabeler {
		return pkg.NewLabelerInterpolate(
			tools.NewStandardFileFinder(),
			dataset.ReadPoints,
			io.NewStandardWriter(),
			std_algorithm_manager.NewAlgorithmManager(opts),
			ledger,
		)
	})

	if err != nil {
		glog.Fatal("Error while interpolating: ", err)
	} else {
		tools.LogOutput("Interpolation Completed")
	}
}

func newLabelerOptions(command string, flags *tools.LabelerFlags) *labeler.LabelerOptions {
	return &labeler.LabelerOptions{
		Input:                  tools.ResolvePath(*flags.Input),
		Output:                 tools.ResolvePath(*flags.Output),
		FolderProcessing:       *flags.FolderProcessing,
		Recursive:              *flags.RecursiveFolderProcessing,
		MaxFiles:               *flags.MaxFiles,
		K:                      *flags.K,
		IndexAlgorithm:         labeler.ParseIndexAlgorithm(*flags.IndexAlgorithm),
		OctreeMaxPointsPerNode: *flags.OctreeMaxPoints,
		Workers:                *flags.Workers,
		ContinueOnError:        *flags.ContinueOnError,
		ReportDB:               tools.ResolvePath(*flags.ReportDB),
		Command:                command,
	}
}

// Opens the optional report database around the run and returns the run error
func runLabeler(opts *labeler.LabelerOptions, newLabeler func(ledger pkg.Ledger) labeler.ILabeler) error {
	if opts.ReportDB == "" {
		return newLabeler(nil).RunLabeler(opts)
	}

	db, err := reportdb.NewReportDB(opts.ReportDB)
	if err != nil {
		return fmt.Errorf("opening report database: %w", err)
	}
	defer db.Close()

	info := reportdb.RunInfo{
		Command:        opts.Command,
		Input:          opts.Input,
		K:              opts.K,
		IndexAlgorithm: opts.IndexAlgorithm.String(),
	}
	if opts.PredictOptions != nil {
		info.Checkpoint = opts.PredictOptions.Checkpoint
	}
	runID, err := db.StartRun(info)
	if err != nil {
		return err
	}
	glog.Infoln("report run", runID, "recorded in", opts.ReportDB)

	runErr := newLabeler(db).RunLabeler(opts)

	status := reportdb.StatusCompleted
	if runErr != nil {
		status = reportdb.StatusFailed
	}
	if err := db.FinishRun(status); err != nil {
		glog.Warningln("cannot finish report run: ", err)
	}
	return runErr
}

// Validates the options shared by every command, creating the output folder when missing
func validateLabelerOptions(opts *labeler.LabelerOptions) (string, bool) {
	if _, err := os.Stat(opts.Input); os.IsNotExist(err) {
		return "Input file/folder not found", false
	}
	if err := tools.CreateDirectoryIfDoesNotExist(opts.Output); err != nil {
		return "Output folder cannot be created: " + err.Error(), false
	}
	if opts.IndexAlgorithm == "" {
		return "index should be either KDTREE or OCTREE", false
	}
	if opts.K <= 0 {
		return "k must be positive", false
	}
	return "", true
}

func validateOptionsForCommandPredict(opts *labeler.LabelerOptions) (string, bool) {
	if msg, res := validateLabelerOptions(opts); !res {
		return msg, res
	}
	if opts.PredictOptions.Checkpoint == "" {
		return "ckpt parameter is required", false
	}
	if opts.PredictOptions.NumSamples <= 0 {
		return "num-samples must be positive", false
	}
	return "", true
}

func validateOptionsForCommandInterpolate(opts *labeler.LabelerOptions) (string, bool) {
	if msg, res := validateLabelerOptions(opts); !res {
		return msg, res
	}
	if _, err := os.Stat(opts.InterpolateOptions.Sparse); os.IsNotExist(err) {
		return "Sparse results folder not found", false
	}
	return "", true
}

func setupLogger(flags *tools.LabelerFlags) {
	// set logging and timestamp logging
	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	if !*flags.LogTimestamp {
		tools.DisableLoggerTimestamp()
	}
}

func loadEnv(envFile string) {
	if err := config.LoadEnv(envFile); err != nil {
		glog.Fatal("Error loading environment: ", err)
	}
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("dense_labeler samples point clouds, labels the samples with a segmentation model and propagates the labels to every point by k nearest neighbour majority vote")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Usage: dense_labeler [global flags] predict|interpolate [command flags]")
	fmt.Println("Run a command with -help to list its flags.")
	fmt.Println("")
	fmt.Println("Global flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}

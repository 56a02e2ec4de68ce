package tools

import (
	"flag"

	"github.com/golang/glog"
)

const (
	CommandPredict     = "predict"
	CommandInterpolate = "interpolate"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

// flags shared by every command
type LabelerFlags struct {
	Input                     *string `json:"input"`
	Output                    *string `json:"output"`
	FolderProcessing          *bool   `json:"folder"`
	RecursiveFolderProcessing *bool   `json:"recursive"`
	MaxFiles                  *int    `json:"max_files"`
	K                         *int    `json:"k"`
	IndexAlgorithm            *string `json:"index"`
	OctreeMaxPoints           *int    `json:"octree_max_points"`
	Workers                   *int    `json:"workers"`
	ContinueOnError           *bool   `json:"continue_on_error"`
	ReportDB                  *string `json:"report_db"`
	EnvFile                   *string `json:"env_file"`
	Silent                    *bool
	LogTimestamp              *bool
	Help                      *bool
	Version                   *bool
}

type FlagsForCommandPredict struct {
	LabelerFlags
	Checkpoint  *string `json:"ckpt"`
	HyperParams *string `json:"hyper_params"`
	NumSamples  *int    `json:"num_samples"`
	BatchSize   *int    `json:"batch_size"`
	Seed        *int    `json:"seed"`
}

type FlagsForCommandInterpolate struct {
	LabelerFlags
	Sparse *string `json:"sparse"`
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "", false, "Displays the version of dense_labeler.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func defineLabelerFlags(flagCommand *flag.FlagSet, defaultMaxFiles int) LabelerFlags {
	return LabelerFlags{
		Input:                     defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the input point cloud file/folder (.bin, .pcd, .txt, .xyz, .pts)."),
		Output:                    defineStringFlagCommand(flagCommand, "output", "o", "result", "Specifies the output folder, sparse and dense results are written in its sparse/ and dense/ subfolders."),
		FolderProcessing:          defineBoolFlagCommand(flagCommand, "folder", "f", false, "Enables processing of all point cloud files from input folder. Input must be a folder if specified"),
		RecursiveFolderProcessing: defineBoolFlagCommand(flagCommand, "recursive", "r", false, "Enables recursive lookup for all point cloud files inside the subfolders"),
		MaxFiles:                  defineIntFlagCommand(flagCommand, "max-files", "m", defaultMaxFiles, "Max number of files to process, 0 processes all of them."),
		K:                         defineIntFlagCommand(flagCommand, "k", "k", 20, "Number of nearest sparse points voting for each dense label."),
		IndexAlgorithm:            defineStringFlagCommand(flagCommand, "index", "x", "KDTREE", "Spatial index used for the interpolation, can be 'KDTREE' or 'OCTREE'."),
		OctreeMaxPoints:           defineIntFlagCommand(flagCommand, "octree-max-points", "", 32, "Max number of points per octree leaf."),
		Workers:                   defineIntFlagCommand(flagCommand, "workers", "w", 0, "Number of interpolation workers, 0 uses one per CPU, 1 is fully sequential."),
		ContinueOnError:           defineBoolFlagCommand(flagCommand, "continue-on-error", "", false, "Logs failed files and continues with the next one instead of stopping the run."),
		ReportDB:                  defineStringFlagCommand(flagCommand, "report-db", "", "", "Optional SQLite file where run and per file timings are recorded."),
		EnvFile:                   defineStringFlagCommand(flagCommand, "env", "", ".env", "Environment file loaded at startup."),
		Silent:                    defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages."),
		LogTimestamp:              defineBoolFlagCommand(flagCommand, "timestamp", "t", false, "Adds timestamp to log messages."),
		Help:                      defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help."),
		Version:                   defineBoolFlagCommand(flagCommand, "version", "v", false, "Displays the version of dense_labeler."),
	}
}

func ParseFlagsForCommandPredict(args []string) FlagsForCommandPredict {
	glog.V(1).Infoln(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-predict", flag.ExitOnError)

	labelerFlags := defineLabelerFlags(flagCommand, 5)
	checkpoint := defineStringFlagCommand(flagCommand, "ckpt", "c", "", "Checkpoint file, an ONNX export of the segmentation model.")
	hyperParams := defineStringFlagCommand(flagCommand, "hyper-params", "p", "semantic_no_color.json", "Hyper parameter file (.json, .yaml or .toml) holding num_point, box_size and use_color.")
	numSamples := defineIntFlagCommand(flagCommand, "num-samples", "n", 8, "Number of samples drawn per file, each contains num_point points.")
	batchSize := defineIntFlagCommand(flagCommand, "batch-size", "b", 0, "Max samples per model call, 0 uses the hyper parameter file batch_size or 128.")
	seed := defineIntFlagCommand(flagCommand, "seed", "", 0, "Seed of the sampling random source.")

	flagCommand.Parse(args)

	return FlagsForCommandPredict{
		LabelerFlags: labelerFlags,
		Checkpoint:   checkpoint,
		HyperParams:  hyperParams,
		NumSamples:   numSamples,
		BatchSize:    batchSize,
		Seed:         seed,
	}
}

func ParseFlagsForCommandInterpolate(args []string) FlagsForCommandInterpolate {
	glog.V(1).Infoln(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-interpolate", flag.ExitOnError)

	labelerFlags := defineLabelerFlags(flagCommand, 0)
	sparse := defineStringFlagCommand(flagCommand, "sparse", "", "result/sparse", "Folder holding the <name>.pcd and <name>.labels sparse results of a previous predict run.")

	flagCommand.Parse(args)

	return FlagsForCommandInterpolate{
		LabelerFlags: labelerFlags,
		Sparse:       sparse,
	}
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

package labeler

import "strings"

type IndexAlgorithm string

const (
	// gonum k-d tree, median pivots sampled at random. Default.
	KDTree IndexAlgorithm = "KDTREE"

	// Bucketed point octree, leaves split when they exceed OctreeMaxPointsPerNode points.
	// Returns the same neighbours as the k-d tree.
	Octree IndexAlgorithm = "OCTREE"
)

func (e IndexAlgorithm) String() string {
	if e == KDTree {
		return "KDTREE"
	} else if e == Octree {
		return "OCTREE"
	}
	return ""
}

func ParseIndexAlgorithm(value string) IndexAlgorithm {
	normalizedValue := strings.Trim(strings.ToUpper(value), " ")
	if normalizedValue == "KDTREE" || normalizedValue == "KD" {
		return KDTree
	} else if normalizedValue == "OCTREE" {
		return Octree
	}
	return ""
}

// Contains the options shared by the labeler commands
type LabelerOptions struct {
	Input                  string         // Input point cloud file/folder
	Output                 string         // Output folder, sparse/ and dense/ are created inside
	FolderProcessing       bool           // Enables the processing of all point cloud files in folder
	Recursive              bool           // Recursive lookup of point cloud files in subfolders
	MaxFiles               int            // Max number of files to process, 0 means all
	K                      int            // Neighbours voting for each dense label
	IndexAlgorithm         IndexAlgorithm // Spatial index used by the interpolation
	OctreeMaxPointsPerNode int            // Leaf capacity for the OCTREE index
	Workers                int            // Interpolation workers, 0 means one per CPU
	ContinueOnError        bool           // Log failed files and go on instead of stopping the run
	ReportDB               string         // Optional SQLite run ledger path

	Command            string
	PredictOptions     *PredictOptions
	InterpolateOptions *InterpolateOptions
}

type PredictOptions struct {
	Checkpoint  string  // ONNX checkpoint path
	HyperParams string  // hyper parameter file
	NumSamples  int     // samples drawn per file
	BatchSize   int     // max samples per predictor call
	NumPoint    int     // points per sample
	BoxSize     float64 // sampling box side
	UseColor    bool    // feed colors to the model
	NumClasses  int
	Seed        uint64
}

type InterpolateOptions struct {
	Sparse string // folder holding <name>.pcd and <name>.labels sparse results
}

func (opt *LabelerOptions) Copy() *LabelerOptions {
	newOpt := *opt
	newOpt.PredictOptions = nil
	newOpt.InterpolateOptions = nil

	if opt.PredictOptions != nil {
		predictOpt := *opt.PredictOptions
		newOpt.PredictOptions = &predictOpt
	}

	if opt.InterpolateOptions != nil {
		interpolateOpt := *opt.InterpolateOptions
		newOpt.InterpolateOptions = &interpolateOpt
	}

	return &newOpt
}

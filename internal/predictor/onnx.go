package predictor

import (
	"fmt"
	"os"
	"sync"

	"github.com/golang/glog"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/ecopia-map/dense_labeler/internal/data"
)

// SharedLibraryEnv names the variable holding the onnxruntime shared library location
const SharedLibraryEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

type ONNXOptions struct {
	SharedLibraryPath string // falls back to $ONNXRUNTIME_SHARED_LIBRARY_PATH
	InputName         string // defaults to the first model input
	OutputName        string // defaults to the first model output
	NumClasses        int
}

// ONNXPredictor runs a point segmentation checkpoint exported to ONNX. The model takes a
// float32 (batch, points, features) tensor and returns (batch, points, classes) scores.
type ONNXPredictor struct {
	session    *ort.DynamicAdvancedSession
	numClasses int
	mutex      sync.Mutex
}

var environmentMutex sync.Mutex

func initializeEnvironment(libraryPath string) error {
	environmentMutex.Lock()
	defer environmentMutex.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libraryPath == "" {
		libraryPath = os.Getenv(SharedLibraryEnv)
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	return ort.InitializeEnvironment()
}

// NewONNXPredictor loads the checkpoint. Any failure is reported as ErrCheckpointLoad.
func NewONNXPredictor(checkpointPath string, opts ONNXOptions) (*ONNXPredictor, error) {
	if opts.NumClasses <= 0 {
		return nil, fmt.Errorf("number of classes must be positive, got %d: %w", opts.NumClasses, data.ErrConfiguration)
	}
	if _, err := os.Stat(checkpointPath); err != nil {
		return nil, fmt.Errorf("checkpoint %s: %v: %w", checkpointPath, err, data.ErrCheckpointLoad)
	}
	if err := initializeEnvironment(opts.SharedLibraryPath); err != nil {
		return nil, fmt.Errorf("initializing onnxruntime: %v: %w", err, data.ErrCheckpointLoad)
	}

	inputName, outputName := opts.InputName, opts.OutputName
	if inputName == "" || outputName == "" {
		inputs, outputs, err := ort.GetInputOutputInfo(checkpointPath)
		if err != nil {
			return nil, fmt.Errorf("inspecting %s: %v: %w", checkpointPath, err, data.ErrCheckpointLoad)
		}
		if len(inputs) == 0 || len(outputs) == 0 {
			return nil, fmt.Errorf("%s declares no inputs or outputs: %w", checkpointPath, data.ErrCheckpointLoad)
		}
		if inputName == "" {
			inputName = inputs[0].Name
		}
		if outputName == "" {
			outputName = outputs[0].Name
		}
	}

	session, err := ort.NewDynamicAdvancedSession(checkpointPath, []string{inputName}, []string{outputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("creating session for %s: %v: %w", checkpointPath, err, data.ErrCheckpointLoad)
	}
	glog.Infof("loaded checkpoint %s (input %q, output %q, %d classes)", checkpointPath, inputName, outputName, opts.NumClasses)

	return &ONNXPredictor{
		session:    session,
		numClasses: opts.NumClasses,
	}, nil
}

func (p *ONNXPredictor) Predict(features [][][]float32) ([][]int, error) {
	flat, shape, err := flattenFeatures(features)
	if err != nil {
		return nil, err
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	input, err := ort.NewTensor(ort.NewShape(int64(shape[0]), int64(shape[1]), int64(shape[2])), flat)
	if err != nil {
		return nil, fmt.Errorf("creating input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(shape[0]), int64(shape[1]), int64(p.numClasses)))
	if err != nil {
		return nil, fmt.Errorf("creating output tensor: %w", err)
	}
	defer output.Destroy()

	if err := p.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("running model: %w", err)
	}

	return DecodeLogits(output.GetData(), shape[0], shape[1], p.numClasses)
}

func (p *ONNXPredictor) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.session == nil {
		return nil
	}
	err := p.session.Destroy()
	p.session = nil
	return err
}

package policy

import (
	"fmt"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/rustyeddy/alphapulse/env"
)

// ONNX runs an actor network exported to ONNX (for example a PPO policy
// trained offline) as an inference-only Policy. The model takes a (1,7)
// float32 observation and returns (1,3) action logits; the argmax is the
// action.
type ONNX struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// InitializeRuntime points onnxruntime_go at the shared library and
// initializes the environment. libPath may be empty to use the platform
// default location.
func InitializeRuntime(libPath string) error {
	if libPath == "" {
		switch runtime.GOOS {
		case "windows":
			libPath = "onnxruntime.dll"
		case "darwin":
			libPath = "libonnxruntime.dylib"
		default:
			libPath = "/usr/lib/libonnxruntime.so"
		}
	}
	ort.SetSharedLibraryPath(libPath)
	return ort.InitializeEnvironment()
}

// NewONNX loads the model at modelPath into a reusable session.
func NewONNX(modelPath string) (*ONNX, error) {
	inputShape := ort.NewShape(1, env.ObservationSize)
	inputTensor, err := ort.NewTensor(inputShape, make([]float32, env.ObservationSize))
	if err != nil {
		return nil, fmt.Errorf("policy: create input tensor: %w", err)
	}

	outputShape := ort.NewShape(1, env.NumActions)
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("policy: create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor}, nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("policy: create session: %w", err)
	}

	return &ONNX{
		session: session,
		input:   inputTensor,
		output:  outputTensor,
	}, nil
}

func (p *ONNX) SelectAction(obs env.Observation) (env.Action, error) {
	data := p.input.GetData()
	for i, v := range obs {
		data[i] = float32(v)
	}

	if err := p.session.Run(); err != nil {
		return env.Hold, fmt.Errorf("policy: inference: %w", err)
	}

	logits := p.output.GetData()
	best := 0
	for a := 1; a < env.NumActions; a++ {
		if logits[a] > logits[best] {
			best = a
		}
	}
	return env.Action(best), nil
}

// Close releases the session and tensors.
func (p *ONNX) Close() {
	if p.session != nil {
		p.session.Destroy()
	}
	if p.input != nil {
		p.input.Destroy()
	}
	if p.output != nil {
		p.output.Destroy()
	}
}

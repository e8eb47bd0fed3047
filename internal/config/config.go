package config

import "github.com/pkg/errors"

type Loader int

const (
	CNTK Loader = iota
	CIFAR10
)

var LoaderStrings = []string{
	CNTK:    "CNTK",
	CIFAR10: "CIFAR10",
}

type Config struct {
	Name       string
	GraphFile  string
	DataFile   string
	Loader     Loader
	Scale      int
	NumSlots   int
	Samples    int
	AllSamples int

	// IntermediateValuesSize should stay below 65536 for the runtime's
	// toolchain.
	IntermediateValuesSize int
	NVMSize                int

	// ParamThreshold is the largest parameter (in bytes) placed in the
	// first parameter region.
	ParamThreshold int

	WithoutProgressEmbedding bool
}

// AllSamplesNVMFactor scales the NVM budget when every sample is compiled.
const AllSamplesNVMFactor = 64

const DefaultParamThreshold = 1024

var menu = [...]Config{
	{
		Name:                   "mnist",
		GraphFile:              "data/mnist.graph",
		DataFile:               "data/Test-28x28_cntk_text.txt",
		Loader:                 CNTK,
		Scale:                  8,
		NumSlots:               2,
		IntermediateValuesSize: 31000,
		NVMSize:                256 * 1024,
		Samples:                20,
		AllSamples:             10000,
		ParamThreshold:         DefaultParamThreshold,
	},
	{
		Name:                   "cifar10",
		GraphFile:              "data/squeezenet_cifar10.graph",
		DataFile:               "data/cifar10-test_batch.bin",
		Loader:                 CIFAR10,
		Scale:                  8,
		NumSlots:               3,
		IntermediateValuesSize: 30000,
		NVMSize:                1024 * 1024,
		Samples:                20,
		AllSamples:             10000,
		ParamThreshold:         DefaultParamThreshold,
	},
}

func Names() []string {
	names := make([]string, len(menu))
	for i := range &menu {
		names[i] = menu[i].Name
	}
	return names
}

type Options struct {
	WithoutProgressEmbedding bool
	AllSamples               bool
}

// Lookup returns a copy of the named configuration with the options
// applied.
func Lookup(name string, opts Options) (*Config, error) {
	for i := range &menu {
		if menu[i].Name != name {
			continue
		}
		c := menu[i]
		c.WithoutProgressEmbedding = opts.WithoutProgressEmbedding
		if opts.AllSamples {
			c.NVMSize *= AllSamplesNVMFactor
			c.Samples = c.AllSamples
		}
		return &c, c.Check()
	}
	return nil, errors.Errorf("no configuration named %q", name)
}

func (c *Config) Check() error {
	switch {
	case c.Scale <= 0 || c.Scale > 0xffff:
		return errors.Errorf("%s: scale %d out of range", c.Name, c.Scale)
	case c.NumSlots <= 0 || c.NumSlots >= SlotParametersFloor:
		return errors.Errorf("%s: %d slots out of range", c.Name, c.NumSlots)
	case c.IntermediateValuesSize < 0:
		return errors.Errorf("%s: negative intermediate values size", c.Name)
	case c.NVMSize <= 0:
		return errors.Errorf("%s: NVM size must be positive", c.Name)
	case c.Samples < 0:
		return errors.Errorf("%s: negative sample count", c.Name)
	case c.ParamThreshold < 0:
		return errors.Errorf("%s: negative parameter threshold", c.Name)
	}
	return nil
}

// SlotParametersFloor is the lowest slot id reserved for parameter and
// test set regions. Intermediate value slots must stay below it.
const SlotParametersFloor = 0xf0

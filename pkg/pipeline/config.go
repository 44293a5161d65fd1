package pipeline

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/abworrall/eclipse-postfx/pkg/blit"
	"github.com/abworrall/eclipse-postfx/pkg/bloom"
	"github.com/abworrall/eclipse-postfx/pkg/tonemap"
)

/* Example config file ...

verbosity: 1
passes: [bloom, tonemap]
bloom:
  downsample: 2
  passloop: 3
  blurintensity: 1
  luminancethreshold: 0.5
  bloomcolor: "#ffd0a0"
  bloomintensity: 1
tonemap:
  maxluminance: 1
  contrast: 1
  linearsectionstart: 0.4
  linearsectionlength: 0.24
  blacktightnessc: 1.33
  blacktightnessb: 0

*/

// PassNames are the passes a config can ask for, in their usual order.
var PassNames = []string{"bloom", "tonemap"}

type Config struct {
	Verbosity int
	Passes    []string // run in this order, each frame
	DumpDir   string   // if set, every blit result is written here as a PNG

	Bloom   bloom.Settings
	Tonemap tonemap.Settings
}

func NewConfig() Config {
	return Config{
		Passes:  append([]string{}, PassNames...),
		Bloom:   bloom.DefaultSettings(),
		Tonemap: tonemap.DefaultSettings(),
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

// LoadConfig reads a yaml file over the defaults, and finalizes it.
func LoadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("read '%s': %v", filename, err)
	}

	c, err := newConfigFromYaml(contents)
	if err != nil {
		return c, fmt.Errorf("parse '%s': %v", filename, err)
	}

	return c, c.Finalize()
}

func (c Config) AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

// Finalize clamps every setting into range and checks the pass names. Passes
// built from a finalized config never see out of range values.
func (c *Config) Finalize() error {
	c.Bloom = c.Bloom.Clamp()
	c.Tonemap = c.Tonemap.Clamp()

	for _, name := range c.Passes {
		if !isPassName(name) {
			return fmt.Errorf("no pass named '%s', wanted one of %v", name, PassNames)
		}
	}

	return c.Bloom.Validate()
}

func isPassName(name string) bool {
	for _, n := range PassNames {
		if n == name {
			return true
		}
	}
	return false
}

// NewPass builds one pass by name, configured from c.
func (c Config) NewPass(name string) (blit.Pass, error) {
	switch name {
	case "bloom":
		e, err := bloom.New(c.Bloom)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "tonemap":
		return tonemap.New(c.Tonemap), nil
	default:
		return nil, fmt.Errorf("no pass named '%s', wanted one of %v", name, PassNames)
	}
}

package musicbox

// Mode selects which feature tier of the editor a song was made in. Old share
// strings predate modes and decode as ModeKid.
type Mode int

const (
	ModeKid Mode = iota
	ModeTween
	ModeStudio
)

// ModeConfig describes what a feature tier lets the user touch.
type ModeConfig struct {
	Name            string
	MinOctave       int
	MaxOctave       int
	AllowBPM        bool // studio mode may override the speed preset with a free BPM
	DefaultVelocity float64
}

// ModeConfigs is indexed by Mode. Never mutated at runtime.
var ModeConfigs = [3]ModeConfig{
	{Name: "kid", MinOctave: 3, MaxOctave: 5, DefaultVelocity: 1},
	{Name: "tween", MinOctave: 2, MaxOctave: 6, DefaultVelocity: 0.8},
	{Name: "studio", MinOctave: 2, MaxOctave: 6, AllowBPM: true, DefaultVelocity: 0.8},
}

// Config returns the feature configuration for the mode, falling back to the
// kid tier for out-of-range values.
func (m Mode) Config() ModeConfig {
	if m < ModeKid || m > ModeStudio {
		return ModeConfigs[ModeKid]
	}
	return ModeConfigs[m]
}

func (m Mode) String() string {
	return m.Config().Name
}

// ModeForName returns the mode with the given name, or ModeKid if the name is
// unknown.
func ModeForName(name string) Mode {
	for i, c := range ModeConfigs {
		if c.Name == name {
			return Mode(i)
		}
	}
	return ModeKid
}

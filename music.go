package musicbox

// PitchNames is the pitch-class alphabet for the two piano tracks. The order
// defines the wire index of each symbol; index 0 is the empty symbol.
var PitchNames = []string{
	"",
	"C",
	"C#",
	"D",
	"D#",
	"E",
	"F",
	"F#",
	"G",
	"G#",
	"A",
	"A#",
	"B",
}

// DrumNames is the sound alphabet for the drum track, again in wire-index
// order with the empty symbol first. Cowbell sits at index 8, one past what
// the 3-bit wire field can carry; see the codec package.
var DrumNames = []string{
	"",
	"kick",
	"snare",
	"hihat",
	"clap",
	"tom",
	"cymbal",
	"shaker",
	"cowbell",
}

// KeyNames lists the selectable key signatures in wire-index order.
var KeyNames = []string{
	"C Major",
	"G Major",
	"D Major",
	"A Major",
	"E Major",
	"F Major",
	"Bb Major",
	"Eb Major",
	"A Minor",
	"E Minor",
	"B Minor",
	"F# Minor",
	"D Minor",
	"G Minor",
	"C Minor",
	"F Minor",
}

// SpeedBPM maps Song.SpeedIndex to a tempo.
var SpeedBPM = [4]int{80, 100, 120, 140}

// BeatCounts lists the selectable song lengths, indexed by the wire length
// field.
var BeatCounts = [4]int{16, 32, 48, 64}

// PitchIndex returns the wire index of a pitch-class name, or -1 if the name
// is not in PitchNames.
func PitchIndex(name string) int {
	for i, n := range PitchNames {
		if n == name {
			return i
		}
	}
	return -1
}

// DrumIndex returns the wire index of a drum-sound name, or -1 if the name is
// not in DrumNames.
func DrumIndex(name string) int {
	for i, n := range DrumNames {
		if n == name {
			return i
		}
	}
	return -1
}

// BeatCountIndex returns the index of an exact beat count in BeatCounts, or
// -1 if the count is not a selectable length.
func BeatCountIndex(count int) int {
	for i, c := range BeatCounts {
		if c == count {
			return i
		}
	}
	return -1
}

// NearestBeatCountIndex returns the index of the selectable length closest to
// count, rounding up when equidistant so no beats are dropped.
func NearestBeatCountIndex(count int) int {
	best := 0
	for i, c := range BeatCounts {
		if abs(c-count) <= abs(BeatCounts[best]-count) {
			best = i
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

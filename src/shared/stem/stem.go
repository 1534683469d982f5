package stem

// FilePaths maps a stem name to the file holding that stem's audio.
type FilePaths = map[string]string

const (
	Vocals = "vocals"
	Drums  = "drums"
	Bass   = "bass"
	Other  = "other"
)

// Names is the fixed stem vocabulary, in canonical order.
var Names = []string{Vocals, Drums, Bass, Other}

func IsValidName(name string) bool {
	for _, known := range Names {
		if name == known {
			return true
		}
	}

	return false
}

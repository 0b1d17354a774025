package analysis

// Class is the coarse instruction category a verdict was reached for.
type Class int

const (
	ClassOther       Class = iota // nothing matched; byte may be overwritten
	ClassHeader                   // inside the cartridge header
	ClassControlFlow              // branches and block transfers
	ClassLoadStore                // single data transfers
	ClassOutOfBounds              // location does not address a full word
)

var classNames = map[Class]string{
	ClassOther:       "other",
	ClassHeader:      "header",
	ClassControlFlow: "control-flow",
	ClassLoadStore:   "load-store",
	ClassOutOfBounds: "out-of-bounds",
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "unknown"
}

// MarshalText lets classes key JSON objects by name.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Verdict is the outcome of classifying one byte offset.
type Verdict struct {
	Eligible bool   `json:"eligible"`
	Class    Class  `json:"class"`
	Rule     string `json:"rule"`
}

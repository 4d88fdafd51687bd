package trackfit

import "fmt"

// HitKey identifies a single measured hit. The top byte carries the
// sub-detector id and the next byte the layer; the low 48 bits are an index
// local to that layer.
type HitKey uint64

// Detector is a tracking sub-detector.
type Detector uint8

const (
	DetectorVertex       Detector = 0 // innermost silicon pixel layers
	DetectorIntermediate Detector = 1 // silicon strip layers
	DetectorTPC          Detector = 2 // drift volume
	DetectorMicromegas   Detector = 3 // outer gaseous layers
)

const (
	detectorShift = 56
	layerShift    = 48
	indexMask     = 1<<layerShift - 1
)

// NewHitKey packs a detector id, layer and per-layer index into a HitKey.
func NewHitKey(det Detector, layer uint8, index uint64) HitKey {
	return HitKey(uint64(det)<<detectorShift | uint64(layer)<<layerShift | index&indexMask)
}

// Detector returns the sub-detector encoded in the key.
func (k HitKey) Detector() Detector {
	return Detector(k >> detectorShift)
}

// Layer returns the layer encoded in the key.
func (k HitKey) Layer() uint8 {
	return uint8(k >> layerShift)
}

// Index returns the per-layer index encoded in the key.
func (k HitKey) Index() uint64 {
	return uint64(k) & indexMask
}

func (k HitKey) String() string {
	return fmt.Sprintf("%s/%d/%d", k.Detector(), k.Layer(), k.Index())
}

func (d Detector) String() string {
	switch d {
	case DetectorVertex:
		return "vertex"
	case DetectorIntermediate:
		return "intermediate"
	case DetectorTPC:
		return "tpc"
	case DetectorMicromegas:
		return "micromegas"
	default:
		return fmt.Sprintf("detector(%d)", uint8(d))
	}
}

// LayerWindow is a half-open layer range [Start, End).
type LayerWindow struct {
	Start uint8 `yaml:"start" json:"start"`
	End   uint8 `yaml:"end" json:"end"`
}

// Contains reports whether the key's layer falls inside the window.
func (w LayerWindow) Contains(k HitKey) bool {
	l := k.Layer()
	return l >= w.Start && l < w.End
}

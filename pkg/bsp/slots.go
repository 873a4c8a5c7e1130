package bsp

// Slot names an optional companion file category.
type Slot string

const (
	SlotNav              Slot = "nav"
	SlotSoundscape       Slot = "soundscape"
	SlotSoundscript      Slot = "soundscript"
	SlotDetail           Slot = "detail"
	SlotParticleManifest Slot = "particle-manifest"
	SlotRadar            Slot = "radar"
	SlotRadarImage       Slot = "radar-image"
	SlotLoadingText      Slot = "loading-text"
	SlotLoadingImage     Slot = "loading-image"
	SlotKV               Slot = "kv"
	SlotRes              Slot = "res"
)

// Slots lists every slot in report order.
var Slots = []Slot{
	SlotNav, SlotSoundscape, SlotSoundscript, SlotDetail, SlotParticleManifest,
	SlotRadar, SlotRadarImage, SlotLoadingText, SlotLoadingImage, SlotKV, SlotRes,
}

// SlotFile is a located utility file. The zero value means absent.
type SlotFile struct {
	// Source is the absolute path on disk.
	Source string `json:"source" yaml:"source"`
	// Archive is the path the file is packed under.
	Archive string `json:"archive" yaml:"archive"`
	// Root is the index of the content root Source was found in.
	Root int `json:"root" yaml:"root"`
	// Generated files are written by the run itself (particle manifest).
	Generated bool `json:"generated,omitempty" yaml:"generated,omitempty"`
}

// Present reports whether the slot was filled.
func (f SlotFile) Present() bool { return f.Source != "" }

// Slot returns the located file for s, or the zero SlotFile.
func (m *Map) Slot(s Slot) SlotFile { return m.Slots[s] }

// SetSlot fills s.
func (m *Map) SetSlot(s Slot, f SlotFile) {
	if m.Slots == nil {
		m.Slots = make(map[Slot]SlotFile)
	}
	m.Slots[s] = f
}

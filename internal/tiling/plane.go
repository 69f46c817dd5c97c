// Package tiling models multi-resolution time-frequency tilings and
// generates them from conditioned time series. Each Plane is one Q value
// subdivided into frequency rows; each row carries a normalized tile-energy
// time series. Planes are built once per scan and consumed read-only.
package tiling

// QRange bounds the tiling resolution parameter searched.
type QRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FrequencyRange bounds the frequency band covered by every plane in a scan.
type FrequencyRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Row is one frequency band's energy time series within a plane.
// Energies[i] is the normalized tile energy at Times[i]; an energy E
// corresponds to SNR = sqrt(2E).
type Row struct {
	CenterFrequency float64
	Times           []float64
	Energies        []float64
}

// Plane is a time-frequency tiling at a fixed Q. Rows are ordered by
// ascending center frequency. Start and Duration describe the underlying
// signal span the tiling covers.
type Plane struct {
	Q              float64
	FrequencyRange FrequencyRange
	Start          float64
	Duration       float64
	Rows           []Row
}

// PlaneSeq enumerates planes one at a time. Next returns nil once the
// sequence is exhausted. Sequences are single-pass: a consumer that needs a
// plane again must hold on to the returned value.
type PlaneSeq interface {
	Next() *Plane
}

// PlaneSlice adapts a fixed set of planes to a PlaneSeq.
type PlaneSlice struct {
	planes []*Plane
	pos    int
}

// NewPlaneSlice returns a single-pass sequence over planes.
func NewPlaneSlice(planes []*Plane) *PlaneSlice {
	return &PlaneSlice{planes: planes}
}

// Next returns the next plane or nil.
func (s *PlaneSlice) Next() *Plane {
	if s.pos >= len(s.planes) {
		return nil
	}
	p := s.planes[s.pos]
	s.pos++
	return p
}

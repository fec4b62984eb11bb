// Package telemetry turns a per-packet channel equalisation estimate into a
// durable, integrity-checked report: a snapshot of the CFO and subcarrier
// gains, optionally tagged with the receiver's location. The report itself
// carries no time; Writer puts the time in the file name.
package telemetry

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/tzneal/coordconv"

	"github.com/venkat-chanest/ofdm-chanest/internal/training"
)

func degToRad(d float64) float64 { return d * math.Pi / 180 }

// Subcarrier is the wire/on-disk representation of one equalisation bin:
// Present mirrors training.Subcarrier.Present, Real/Imag are only
// meaningful when Present is true.
type Subcarrier struct {
	Present bool    `json:"present"`
	Real    float32 `json:"real,omitempty"`
	Imag    float32 `json:"imag,omitempty"`
}

// ChannelReport is one monitor observation: the estimated CFO, the full
// per-subcarrier equalisation vector, and where it was observed.
type ChannelReport struct {
	CFO         float32      `json:"cfo"`
	Subcarriers []Subcarrier `json:"subcarriers"`
	Location    *Location    `json:"location,omitempty"`
}

// Location is a receiver position expressed as UTM, converted from
// geodetic latitude/longitude at report time.
type Location struct {
	Zone       int     `json:"zone"`
	Hemisphere string  `json:"hemisphere"`
	Easting    float64 `json:"easting"`
	Northing   float64 `json:"northing"`
}

// NewReport builds a ChannelReport from a pipeline equalisation vector.
func NewReport(cfo float32, eq training.SubcarrierVector) ChannelReport {
	subs := make([]Subcarrier, len(eq))
	for i, e := range eq {
		if !e.Present {
			continue
		}
		subs[i] = Subcarrier{Present: true, Real: real(e.Value), Imag: imag(e.Value)}
	}
	return ChannelReport{CFO: cfo, Subcarriers: subs}
}

// WithLocation converts a geodetic latitude/longitude to UTM and attaches
// it to the report.
func (r ChannelReport) WithLocation(lat, lng float64) (ChannelReport, error) {
	latlng := s2.LatLng{Lat: s1.Angle(degToRad(lat)), Lng: s1.Angle(degToRad(lng))}
	utm, err := coordconv.DefaultUTMConverter.ConvertFromGeodetic(latlng, 0)
	if err != nil {
		return r, err
	}
	hemi := "N"
	if utm.Hemisphere == coordconv.HemisphereSouth {
		hemi = "S"
	}
	r.Location = &Location{
		Zone:       utm.Zone,
		Hemisphere: hemi,
		Easting:    utm.Easting,
		Northing:   utm.Northing,
	}
	return r, nil
}

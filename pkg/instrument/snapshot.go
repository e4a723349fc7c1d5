package instrument

import (
	"fmt"

	"github.com/ssargent/fixedrec/pkg/flyweight"
)

// Snapshot is a detached copy of an Instrument's fields
type Snapshot struct {
	ID         int32  `json:"id" yaml:"id"`
	SecurityID int32  `json:"securityId" yaml:"securityId"`
	Cusip      string `json:"cusip" yaml:"cusip"`
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	MinSize    int32  `json:"minSize" yaml:"minSize"`
}

func (s Snapshot) String() string {
	return fmt.Sprintf("Instrument{id=%d securityId=%d cusip=%q enabled=%t minSize=%d}",
		s.ID, s.SecurityID, s.Cusip, s.Enabled, s.MinSize)
}

func snapshotOf(r *flyweight.Record) Snapshot {
	return Snapshot{
		ID:         r.Int32(fieldID),
		SecurityID: r.Int32(fieldSecurityID),
		Cusip:      r.ASCII(fieldCusip),
		Enabled:    r.Bool(fieldEnabled),
		MinSize:    r.Int32(fieldMinSize),
	}
}

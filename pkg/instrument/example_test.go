package instrument_test

import (
	"fmt"

	"github.com/ssargent/fixedrec/pkg/buffer"
	"github.com/ssargent/fixedrec/pkg/instrument"
)

func Example() {
	buf := buffer.Allocate(instrument.BufferLength)

	inst := instrument.New()
	if err := inst.BindAndInitialize(buf, 0); err != nil {
		panic(err)
	}
	_ = inst.WriteID(1)
	inst.LockKey()
	_ = inst.WriteSecurityID(42)
	_ = inst.WriteCusip("912828U40")
	_ = inst.WriteEnabled(true)
	_ = inst.WriteMinSize(1000)

	fmt.Println(inst.ValidateHeader())
	fmt.Println(inst.Snapshot())
	fmt.Println(inst.WriteID(2) != nil)
	// Output:
	// true
	// Instrument{id=1 securityId=42 cusip="912828U40" enabled=true minSize=1000}
	// true
}

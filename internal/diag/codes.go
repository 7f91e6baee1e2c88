package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Design loading (YAML -> netlist).
	DsgInfo             Code = 1000
	DsgParseError       Code = 1001
	DsgMissingTop       Code = 1002
	DsgDuplicateSignal  Code = 1003
	DsgUnknownSignal    Code = 1004
	DsgBadWidth         Code = 1005
	DsgBadEdge          Code = 1006
	DsgBadRegion        Code = 1007
	DsgBadOp            Code = 1008
	DsgBadValue         Code = 1009
	DsgBadProcess       Code = 1010
	DsgEmptySensitivity Code = 1011
	DsgUnknownProcess   Code = 1012
	DsgBadSchedulerKind Code = 1013

	// Scheduling.
	SchInfo           Code = 3000
	SchForkEscape     Code = 3001
	SchBadSensitivity Code = 3002
	SchInternal       Code = 3003

	// File I/O.
	IOLoadFileError Code = 4000

	// Model evaluation.
	SimInfo       Code = 5000
	SimNoConverge Code = 5001
	SimFatal      Code = 5002
	SimDeadlock   Code = 5003

	// Observability.
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown diagnostic",

	DsgInfo:             "Design information",
	DsgParseError:       "Design file parse error",
	DsgMissingTop:       "Design has no top scope",
	DsgDuplicateSignal:  "Duplicate signal name",
	DsgUnknownSignal:    "Reference to unknown signal",
	DsgBadWidth:         "Invalid signal width",
	DsgBadEdge:          "Invalid sensitivity edge",
	DsgBadRegion:        "Invalid region hint",
	DsgBadOp:            "Unknown statement operation",
	DsgBadValue:         "Invalid constant value",
	DsgBadProcess:       "Invalid process definition",
	DsgEmptySensitivity: "Empty sensitivity list",
	DsgUnknownProcess:   "Reference to unknown process",
	DsgBadSchedulerKind: "Invalid scheduler object kind",

	SchInfo:           "Scheduling information",
	SchForkEscape:     "Fork branch captures local that may outlive the process",
	SchBadSensitivity: "Suspension point has unusable sensitivity",
	SchInternal:       "Internal scheduling invariant violated",

	IOLoadFileError: "I/O load file error",

	SimInfo:       "Evaluation information",
	SimNoConverge: "Region did not converge",
	SimFatal:      "Model raised a fatal error",
	SimDeadlock:   "All processes suspended with no pending wakeup",

	ObsInfo:    "Observability information",
	ObsTimings: "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("DSG%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SCH%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("SIM%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

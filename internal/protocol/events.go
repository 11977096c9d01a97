package protocol

// EventsManager is the capability set the decoder dispatches decoded
// events to. It is injected at construction time rather than looked up
// through a global registry (see DESIGN.md on the connection-flag design
// note — the same "own your dependencies" preference applies here).
type EventsManager interface {
	Connected()
	TrajectoriesDiscovered(tracks map[string]TrajectoryRecord)
	CaptureTargetState(state CaptureStatusRecord)
	ServerStateChanged(state ServerStateRecord)

	// ExtendedStateChanged is additive beyond spec.md §6's four calls —
	// see SPEC_FULL.md §3: the 0x15 wire format is fully specified and
	// decoding it without delivering it anywhere would silently drop
	// data the original collects.
	ExtendedStateChanged(state ExtendedStatusRecord)
}

// TrajectoryRecord is one decoded entry from a 0x0A trajectory-list packet.
type TrajectoryRecord struct {
	TrackID      uint16
	Status       uint8
	RCSSquare    float64 // integer.fraction decimal, e.g. intPart=3 fracPart=7 -> 3.7
	Range        uint16
	AzimuthDeg   float64 // signed, 0.5deg resolution, rounded to 0.1
	RadialSpeed  int16
	TangentSpeed int16
	Sector       uint8
}

// CaptureStatusRecord is decoded from a 0x0D capture-status packet.
type CaptureStatusRecord struct {
	TrackID      uint16
	CaptureState uint8
}

// ServerStateRecord is decoded from a 0x14 server-status packet. A zero
// value (all fields unset, RadarType == "") signals "disconnected" per
// spec.md §4.2 step 1 of the decoding loop.
type ServerStateRecord struct {
	ConnectionCORT uint8
	ConnectionRLS  uint8
	ConnectionPTZ  uint8
	ActiveInterf   uint8
	EradiationRLS  uint8
	Filters        uint8
	Masks          uint8
	PanPTZ         uint16
	TiltPTZ        uint16
	ControlPTZ     uint8
	TrajCaptured   uint8
	AutoCapture    uint8
	RadarType      string
	FrequencyMHz   *float64 // nil when the frequency code is out of range
}

// ExtendedStatusRecord is decoded from a 0x15 extended-status packet.
type ExtendedStatusRecord struct {
	TransmitterState     uint8
	DigitalReceiverState uint8
	AnalogReceiverState  uint8
	ClientCount          uint8
	PassiveInterference  [4]uint8
	ReceiverSensitivity  uint8
	TxCountRDS1          uint8
	RxCountRDS1          uint8
	ErrorsCountRDS1      uint8
}

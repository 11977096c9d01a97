// Package protocol implements the Radescan/Umirs binary request/response
// wire format: packet framing, command encoders, and the inbound decoder.
package protocol

// Direction byte values (offset 0).
const (
	DirToServer = 0x00
	DirToClient = 0x01
)

// ClientID is the fixed client identity used in every outbound header
// (offset 4); the protocol reserves this byte but only ever expects 0x01.
const ClientID = 0x01

// MinPacketLen and MaxPacketLen bound the total packet length (bytes [1:3]).
const (
	MinPacketLen = 10
	MaxPacketLen = 416
)

// Command codes, as used in header byte [6].
const (
	CmdHello            = 0x00
	CmdHelloResponse    = 0x01
	CmdGetServerStatus  = 0x09
	CmdTrajectoryList   = 0x0A
	CmdCaptureAndFollow = 0x0B
	CmdSetAutoCapture   = 0x0C
	CmdCaptureStatus    = 0x0D
	CmdSetArmRLS        = 0x0E
	CmdSetFilters       = 0x0F
	CmdSetMasks         = 0x10
	CmdSetPTZ           = 0x11
	CmdSetPTZPreset     = 0x12
	CmdServerStatus     = 0x14
	CmdExtendedStatus   = 0x15
)

// headerLen is the size of the fixed header prefixed to every command
// payload: direction, length(2), seq, clientID, serverID, command, cmdLen(2).
const headerLen = 9

// newHeader lays out the fixed 9-byte header for an outbound packet of the
// given total length and command, with the given sequence and server id.
// payloadLen is the length of the command-specific payload that follows.
func newHeader(totalLen int, seq, serverID, command byte, payloadLen int) []byte {
	h := make([]byte, headerLen, totalLen)
	h[0] = DirToServer
	h[1] = byte(totalLen >> 8)
	h[2] = byte(totalLen)
	h[3] = seq
	h[4] = ClientID
	h[5] = serverID
	h[6] = command
	h[7] = byte(payloadLen >> 8)
	h[8] = byte(payloadLen)
	return h
}

// PacketLen reads the declared total length out of a packet's header
// (bytes [1:3], big-endian).
func PacketLen(p []byte) int {
	return int(p[1])<<8 | int(p[2])
}

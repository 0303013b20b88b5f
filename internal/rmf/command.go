/*
MIT License

Copyright (c) 2026 cogu

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package rmf

import (
	"encoding/binary"

	"github.com/cogu/goapx/pkg/apxerr"
)

// CommandType identifies an RMF command frame's payload shape.
type CommandType uint32

const (
	CmdFileInfo  CommandType = 1
	CmdFileOpen  CommandType = 2
	CmdFileClose CommandType = 3
	CmdAck       CommandType = 4
	CmdHeartbeat CommandType = 5
)

// FileType distinguishes a fixed-size file from one with a dynamic size
// (e.g. an in-progress growable log), carried in FILE_INFO.
type FileType uint8

const (
	FileFixed   FileType = 0
	FileDynamic FileType = 1
)

const maxFileNameBytes = 256

// AckPayload is the literal 8-byte greeting acknowledgement body.
var AckPayload = [8]byte{0xBF, 0xFF, 0xFC, 0x00, 0x00, 0x00, 0x00, 0x00}

// FileInfo is the FILE_INFO command body: publish a file.
type FileInfo struct {
	Address    uint32
	Size       uint32
	Type       FileType
	DigestType uint8
	Digest     [4]byte
	Name       string
}

// EncodeFileInfo renders a FILE_INFO command frame (address CommandAddress
// implied by the caller, command type + body only). The name is always
// NUL-terminated on encode; decode tolerates either form (§9).
func EncodeFileInfo(fi FileInfo) ([]byte, apxerr.Error) {
	if len(fi.Name) > maxFileNameBytes {
		return nil, apxerr.Newf(apxerr.KindNameTooLong, "file name %q exceeds %d bytes", fi.Name, maxFileNameBytes)
	}
	buf := make([]byte, 0, 4+4+4+1+1+4+len(fi.Name)+1)
	buf = appendU32(buf, uint32(CmdFileInfo))
	buf = appendU32(buf, fi.Address)
	buf = appendU32(buf, fi.Size)
	buf = append(buf, byte(fi.Type), fi.DigestType)
	buf = append(buf, fi.Digest[:]...)
	buf = append(buf, fi.Name...)
	buf = append(buf, 0)
	return buf, nil
}

// DecodeFileInfo parses a FILE_INFO body (the command-type word already
// consumed by the caller via DecodeCommandType).
func DecodeFileInfo(body []byte) (FileInfo, apxerr.Error) {
	if len(body) < 14 {
		return FileInfo{}, apxerr.New(apxerr.KindUnexpectedEnd, "FILE_INFO body too short")
	}
	fi := FileInfo{
		Address:    binary.LittleEndian.Uint32(body[0:4]),
		Size:       binary.LittleEndian.Uint32(body[4:8]),
		Type:       FileType(body[8]),
		DigestType: body[9],
	}
	copy(fi.Digest[:], body[10:14])
	name := body[14:]
	if i := indexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	if len(name) > maxFileNameBytes {
		return FileInfo{}, apxerr.New(apxerr.KindNameTooLong, "FILE_INFO name too long")
	}
	fi.Name = string(name)
	return fi, nil
}

// EncodeFileOpen renders a FILE_OPEN command body.
func EncodeFileOpen(address uint32) []byte {
	buf := appendU32(nil, uint32(CmdFileOpen))
	return appendU32(buf, address)
}

// DecodeFileOpen parses a FILE_OPEN body.
func DecodeFileOpen(body []byte) (uint32, apxerr.Error) {
	if len(body) < 4 {
		return 0, apxerr.New(apxerr.KindUnexpectedEnd, "FILE_OPEN body too short")
	}
	return binary.LittleEndian.Uint32(body[0:4]), nil
}

// EncodeAck renders the greeting ACK message: not command-address framed
// like the other command types, it is the bare 8-byte literal payload
// detected positionally during the handshake (spec §4.7 "Greeting
// detection").
func EncodeAck() []byte {
	return append([]byte(nil), AckPayload[:]...)
}

// IsAck reports whether payload is exactly the 8-byte ACK literal.
func IsAck(payload []byte) bool {
	return len(payload) == 8 && [8]byte(payload[:8]) == AckPayload
}

// EncodeHeartbeat renders the HEARTBEAT command frame body.
func EncodeHeartbeat() []byte {
	return appendU32(nil, uint32(CmdHeartbeat))
}

// EncodeFileClose renders a FILE_CLOSE command body.
func EncodeFileClose(address uint32) []byte {
	buf := appendU32(nil, uint32(CmdFileClose))
	return appendU32(buf, address)
}

// DecodeCommandType reads the leading 32-bit command type word.
func DecodeCommandType(payload []byte) (CommandType, []byte, apxerr.Error) {
	if len(payload) < 4 {
		return 0, nil, apxerr.New(apxerr.KindUnexpectedEnd, "command payload too short")
	}
	return CommandType(binary.LittleEndian.Uint32(payload[0:4])), payload[4:], nil
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

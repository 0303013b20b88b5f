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

// Package conn implements the per-connection state machine, greeting
// handshake, NumHeader framing and send-batching over a byte stream, per
// spec §4.7 and §4.8.
package conn

// State is a connection's position in the handshake/lifecycle state
// machine, identical for client and server roles (spec §4.7).
type State int

const (
	StateInit State = iota
	StateGreetingSent
	StateHeaderAccepted
	StateAcknowledged
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateGreetingSent:
		return "greeting-sent"
	case StateHeaderAccepted:
		return "header-accepted"
	case StateAcknowledged:
		return "acknowledged"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Role distinguishes which side sends the greeting first; the rest of the
// state machine is identical for both.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

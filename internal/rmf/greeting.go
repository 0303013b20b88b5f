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

import "strings"

// Greeting text formats negotiated at connection start, per spec §4.5.
const (
	GreetingLine        = "RMFP/1.0\n"
	LegacyHeaderLine    = "NumHeader-Format:32\n\n"
	CurrentHeaderLine   = "Message-Format: 32\n\n"
)

// BuildGreeting renders the current-format greeting text. New connections
// always send the current format; ParseGreeting accepts either.
func BuildGreeting() string {
	return GreetingLine + CurrentHeaderLine
}

// ParseGreeting validates that text is a well-formed greeting (either
// format) and reports which one.
func ParseGreeting(text string) (legacy bool, ok bool) {
	if !strings.HasPrefix(text, GreetingLine) {
		return false, false
	}
	rest := text[len(GreetingLine):]
	if rest == CurrentHeaderLine {
		return false, true
	}
	if rest == LegacyHeaderLine {
		return true, true
	}
	return false, false
}

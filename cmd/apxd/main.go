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

// Command apxd is the RMF server daemon: it accepts TCP connections,
// drives each one through the connection state machine, and serves
// Prometheus metrics. It is not one of the named out-of-scope front-ends
// (apx_listen/apx_control/apx_send), which remain external collaborators.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cogu/goapx/pkg/apxcfg"
)

func main() {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "apxd",
		Short: "APX/RMF signal-exchange server daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(v, cfgFile)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")

	if err := apxcfg.BindFlags(root, v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

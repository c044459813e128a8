// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/saveloc/saveloc/cmd/saveloc"

func main() {
	cmd.Execute()
}

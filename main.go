// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/scd-tools/scd/cmd/scd"

func main() {
	cmd.Execute()
}

// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/pyship/pyship/cmd/pyship"

func main() {
	cmd.Execute()
}

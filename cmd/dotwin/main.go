/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package main

import "github.com/albedosehen/dotwin/pkg/cli"

func main() {
	cli.Execute()
}

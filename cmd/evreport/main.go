// Command evreport renders the dashboard report offline: a text summary, the
// CSV and XLSX downloads, or a PDF snapshot of a running dashboard.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Command locaudit crawls trucking-carrier websites and reports how each one
// exposes its location data.
package main

import (
	"os"

	"github.com/Sgct97/truckingCompanyCrawler/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

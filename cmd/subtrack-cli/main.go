// Command subtrack-cli reports on and exports tracked subscriptions using the
// same configuration as the subtrack server.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

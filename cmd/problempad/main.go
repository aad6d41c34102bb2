// Package main provides the problempad CLI.
//
// problempad records the problems a startup faces as reports. Reports go to
// the report API when it is reachable and to local storage otherwise.
//
// Usage:
//
//	problempad submit --title "..." --description "..." --impact 7
//	problempad submit -f form.yaml
//	problempad list
//
// See --help for all available options.
package main

func main() {
	Execute()
}

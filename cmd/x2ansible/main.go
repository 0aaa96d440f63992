// x2ansible migrates Chef, Puppet and Salt modules to Ansible roles.
//
// Usage:
//
//	x2ansible migrate --path <module-dir> --tech chef [-o <role-dir>]
//	x2ansible validate -o <role-dir>
//	x2ansible status [--module <name>]
//	x2ansible report --module <name>
//	x2ansible publish --role <name> --role-path <role-dir>
//	x2ansible publish-aap --repo <git-url> --branch main
//	x2ansible serve
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Command bookmatectl manages a BookMate data directory from the shell.
package main

import "github.com/bookmate/bookmate-server/cmd/bookmatectl/commands"

func main() {
	commands.Execute()
}

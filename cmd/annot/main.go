package main

import (
	"os"
)

func main() {
	a := &app{}
	err := newRootCommand(a).Execute()
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Exit(1)
	}
}

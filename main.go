// askchat is a terminal and browser chat client for an "ask" endpoint.
package main

import "github.com/linanwx/askchat/cmd"

func main() {
	cmd.Execute()
}

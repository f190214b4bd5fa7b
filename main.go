package main

import "github.com/ValentinKolb/moray/cmd"

func main() {
	cmd.Execute()
}

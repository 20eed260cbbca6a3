package main

import "github.com/civiclink/grievance-management/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/sgaunet/s3ingest/cmd"

func main() {
	cmd.Execute()
}

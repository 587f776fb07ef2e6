package main

import "github.com/auctionlab/scrape-tasks-api/cmd"

func main() {
	cmd.Execute()
}

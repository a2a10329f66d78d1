package main

import "chzzk-vod-resolver-go/crawler/chzzk/cli"

func main() {
	cli.Execute()
}

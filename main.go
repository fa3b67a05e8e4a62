package main

import "github.com/replybase/replybase/cmd"

func main() {
	cmd.Execute()
}

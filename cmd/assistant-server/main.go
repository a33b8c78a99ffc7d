package main

import "github.com/oshokin/voice-assistant/cmd/assistant-server/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/oshokin/voice-assistant/cmd/assistant-client/cmd"

func main() {
	cmd.Execute()
}

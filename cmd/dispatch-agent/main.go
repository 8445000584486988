package main

import "github.com/autopeer-io/dispatch/cmd/dispatch-agent/app"

func main() {
	app.NewApp().Run()
}

package main

import "github.com/autopeer-io/dispatch/cmd/dispatchctl/app"

func main() {
	app.NewApp().Run()
}

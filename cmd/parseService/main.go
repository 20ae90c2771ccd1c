package main

import (
	"bitbucket.org/airenas/depgo/internal/app/parseserver"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	parseserver.Execute()
}

var (
	version string
)

func printBanner() {
	banner := `
       __                    
  ____/ /__  ____  ____ _____
 / __  / _ \/ __ \/ __ ` + "`" + `/ __ \
/ /_/ /  __/ /_/ / /_/ / /_/ /
\__,_/\___/ .___/\__, /\____/ 
         /_/    /____/        
   ________  ______   _____  _____
  / ___/ _ \/ ___/ | / / _ \/ ___/
 (__  )  __/ /   | |/ /  __/ /    
/____/\___/_/    |___/\___/_/     v: %s
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("bitbucket.org/airenas/depgo"))
}

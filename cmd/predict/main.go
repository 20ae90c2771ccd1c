package main

import (
	"bitbucket.org/airenas/depgo/internal/app/predict"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	predict.Execute()
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
                      ____     __
    ____  ________  _/ __ \   / /_
   / __ \/ ___/ _ \/ / / /  / ___/
  / /_/ / /  /  __/ /_/ /  / /__  
 / .___/_/   \___/\____/   \___/  v: %s
/_/
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("bitbucket.org/airenas/depgo"))
}

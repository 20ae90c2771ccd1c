package main

import (
	"bitbucket.org/airenas/depgo/internal/app/evaluate"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	evaluate.Execute()
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
                   __
  ___ _   ______ _/ /
 / _ \ | / / __ ` + "`" + `/ / 
/  __/ |/ / /_/ / /  
\___/|___/\__,_/_/   v: %s
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("bitbucket.org/airenas/depgo"))
}
